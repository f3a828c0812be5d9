package middleware

import (
	"ai_impression/model"
	"ai_impression/service/impression"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	AuthorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	// CallerKey 通过认证的调用方 ID 在 gin.Context 中的 key
	CallerKey = "caller_id"
)

var errUnexpectedSigningMethod = errors.New("unexpected signing method")

// AdminAuth 校验 HS256 签名的 Bearer token，subject 必须在 permissions.admin 中
// 带平台前缀的管理员条目要求 subject 完全一致，裸 user_id 条目匹配任意平台
func AdminAuth(secret func() string, adminIDs func() []string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		caller, err := verifyCaller(ctx.GetHeader(AuthorizationHeader), secret())
		if err != nil || !isAdmin(caller, adminIDs()) {
			log.WithError(err).Warnf("admin permission denied: caller=%q path=%s", caller, ctx.Request.URL.Path)
			e := model.NewError(model.ErrorNoPermission, nil)
			ctx.AbortWithStatusJSON(model.HttpStatusNoPermission, model.Response{Code: e.Code, Message: e.Message})
			return
		}
		ctx.Set(CallerKey, caller)
		ctx.Next()
	}
}

func verifyCaller(header, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("admin jwt secret not configured")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", errors.New("missing bearer token")
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, bearerPrefix), claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedSigningMethod
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Wrap(err, "parse admin token")
	}
	if !token.Valid {
		return "", errors.New("invalid admin token")
	}
	return strings.TrimSpace(claims.Subject), nil
}

func isAdmin(caller string, admins []string) bool {
	if caller == "" {
		return false
	}
	normalized := impression.NormalizeUserID(caller)
	for _, admin := range admins {
		admin = strings.TrimSpace(admin)
		switch {
		case admin == "":
			continue
		case strings.Contains(admin, ":"):
			if admin == caller {
				return true
			}
		case admin == normalized:
			return true
		}
	}
	return false
}
