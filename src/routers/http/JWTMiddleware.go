package http

import (
	"net/http"
	"os"
	"time"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
	jwtgo "github.com/golang-jwt/jwt/v4"

	"github.com/kerberos-io/ptz-proxy/src/config"
	"github.com/kerberos-io/ptz-proxy/src/models"
)

func JWTMiddleWare(configDirectory string) jwt.GinJWTMiddleware {

	identityKey := "id"
	myKey := os.Getenv("PTZPROXY_JWT_SECRET")
	if myKey == "" {
		myKey = "TOBECHANGED"
	}

	m := jwt.GinJWTMiddleware{
		Realm:       "ptzproxy",
		Key:         []byte(myKey),
		Timeout:     time.Hour * 24,
		MaxRefresh:  time.Hour * 24 * 7,
		IdentityKey: identityKey,
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if v, ok := data.(*models.User); ok {
				return jwt.MapClaims{
					identityKey: v,
				}
			}
			return jwt.MapClaims{}
		},
		IdentityHandler: func(c *gin.Context) interface{} {
			claims := jwt.ExtractClaims(c)
			user := claims["id"].(map[string]interface{})
			return &models.User{
				Username: user["username"].(string),
				Role:     user["role"].(string),
			}
		},
		Authenticator: func(c *gin.Context) (interface{}, error) {
			var loginVals models.Authentication
			if err := c.ShouldBind(&loginVals); err != nil {
				return "", jwt.ErrMissingLoginValues
			}
			username := loginVals.Username
			password := loginVals.Password

			userConfig := config.ReadUserConfig(configDirectory)
			if username == userConfig.Username && password == userConfig.Password {
				return &models.User{
					Username: username,
					Role:     userConfig.Role,
				}, nil
			}
			return nil, jwt.ErrFailedAuthentication
		},
		LoginResponse: func(c *gin.Context, code int, token string, expire time.Time) {

			// Decrypt the token
			hmacSecret := []byte(myKey)
			t, _ := jwtgo.Parse(token, func(token *jwtgo.Token) (interface{}, error) {
				return hmacSecret, nil
			})

			// Get the claims
			claims, _ := t.Claims.(jwtgo.MapClaims)
			user := claims["id"].(map[string]interface{})

			c.JSON(http.StatusOK, models.Authorization{
				Code:     http.StatusOK,
				Token:    token,
				Expire:   expire.Format(time.RFC3339),
				Username: user["username"].(string),
				Role:     user["role"].(string),
			})
		},
		Authorizator: func(data interface{}, c *gin.Context) bool {
			if _, ok := data.(*models.User); ok {
				return true
			}
			return false
		},
		Unauthorized: func(c *gin.Context, code int, message string) {
			c.AbortWithStatusJSON(code, gin.H{
				"code":    code,
				"message": message,
			})
		},
		// TokenLookup is a string in the form of "<source>:<name>" that is used
		// to extract token from the request.
		TokenLookup: "header: Authorization, query: token, cookie: jwt",

		// TokenHeadName is a string in the header. Default value is "Bearer"
		TokenHeadName: "Bearer",

		TimeFunc: time.Now,
	}
	return m
}
