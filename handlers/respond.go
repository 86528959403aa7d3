// Package handlers regroupe ce qui est commun aux handlers HTTP: traduction
// des erreurs métier et lecture des paramètres de pagination.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/whisky55/rede-social/social"
	"github.com/whisky55/rede-social/utils"
)

// RetryAfterSeconds est annoncé aux clients quand le store est indisponible
const RetryAfterSeconds = "1"

// StatusFor associe un Kind métier à un code HTTP
func StatusFor(kind social.Kind) int {
	switch kind {
	case social.KindValidation:
		return http.StatusBadRequest
	case social.KindPermission:
		return http.StatusForbidden
	case social.KindNotFound:
		return http.StatusNotFound
	case social.KindConflict:
		return http.StatusConflict
	}
	return http.StatusServiceUnavailable
}

// RespondError envoie l'erreur du service au format {"error", "code"}
func RespondError(c *gin.Context, err error) {
	kind := social.KindOf(err)
	status := StatusFor(kind)

	message := err.Error()
	var e *social.Error
	if !errors.As(err, &e) {
		// ne pas exposer les détails d'une panne inconnue
		message = "service unavailable"
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", RetryAfterSeconds)
		utils.LogErrorWithUser(c.GetString("user_id"), err, "Request failed: "+c.Request.Method+" "+c.FullPath())
	}
	utils.SendErrorCode(c, status, string(kind), message)
}

// Limit lit le paramètre ?limit=; 0 laisse le service appliquer sa taille par défaut
func Limit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		utils.SendErrorCode(c, http.StatusBadRequest, string(social.KindValidation), "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}
