package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"pregador/apperr"
	"pregador/billing"
	"pregador/mailer"
	"pregador/models"
	"pregador/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

const inviteTTL = 7 * 24 * time.Hour

type InviteRequest struct {
	Email string `json:"email" form:"email"`
	Role  string `json:"role" form:"role"`
}

type AcceptInviteRequest struct {
	Code     string `json:"code" form:"code"`
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

// POST /api/users/invites (owner, admin)
// O envio do código é assíncrono; o limite de usuários volta a ser checado no aceite.
func CreateInvite(c *gin.Context) {
	actor, _ := GetUserLogged(c)
	company, _ := GetCompanyLogged(c)

	var invite models.Invite
	var req InviteRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	invite.Email = models.NormalizeEmail(req.Email)
	invite.Role = req.Role
	if invite.Role == "" {
		invite.Role = models.USER_ROLE_MEMBER
	}
	if missing := invite.MissingFields(); missing != "" {
		RespondError(c, "Faltando campo "+missing, http.StatusBadRequest)
		return
	}
	if !tools.ValidateEmail(invite.Email) {
		RespondError(c, "E-mail inválido!", http.StatusBadRequest)
		return
	}
	if !assignableRole(actor, invite.Role) {
		RespondError(c, "perfil inválido", http.StatusBadRequest)
		return
	}

	db, ok := database(c)
	if !ok {
		return
	}
	if taken, err := emailTaken(db, invite.Email); err != nil {
		RespondAppError(c, err)
		return
	} else if taken {
		RespondError(c, "Usuário já existe", http.StatusBadRequest)
		return
	}

	exp := deps.Now().Add(inviteTTL)
	invite.CompanyID = actor.CompanyID
	invite.InviterID = actor.ID
	invite.Code = tools.RandomString(32)
	invite.Status = models.INVITE_STATUS_PENDING
	invite.ExpiresAt = &exp

	// checagem antecipada: evita convidar quando a empresa já está no limite
	err := billing.CreateWithinLimit(c.Request.Context(), db, actor.CompanyID, billing.ResourceUsers, func(tx *gorm.DB) error {
		if err := tx.Create(&invite).Error; err != nil {
			return apperr.Server(fmt.Errorf("create invite: %w", err))
		}
		return nil
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}

	if deps.Notifier != nil {
		email := mailer.NewEmail(deps.Config.Mail.FromMail, []string{invite.Email},
			mailer.WithSubject("Você foi convidado para o Pregador"),
			mailer.WithText(fmt.Sprintf("%s convidou você para a conta %s. Use o código %s para criar seu acesso. O convite expira em 7 dias.",
				actor.Name, company.Name, invite.Code)),
		)
		if !deps.Notifier.Enqueue(email) {
			zap.L().Warn("convite não enfileirado", zap.Int64("invite_id", invite.ID))
		}
	}
	RespondCreated(c, gin.H{"invite": invite})
}

// POST /api/auth/invites/accept
func AcceptInvite(c *gin.Context) {
	var req AcceptInviteRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" || strings.TrimSpace(req.Name) == "" {
		RespondError(c, "code e name são obrigatórios", http.StatusBadRequest)
		return
	}
	if tools.CheckPassword(req.Password, deps.Config.Security.MinPasswordLen) != "" {
		RespondError(c, fmt.Sprintf("a senha deve ter ao menos %d caracteres", deps.Config.Security.MinPasswordLen), http.StatusBadRequest)
		return
	}

	db, ok := database(c)
	if !ok {
		return
	}

	var invite models.Invite
	if err := db.Where("code = ? AND status = ?", req.Code, models.INVITE_STATUS_PENDING).First(&invite).Error; err != nil {
		RespondError(c, "convite não encontrado", http.StatusNotFound)
		return
	}
	if invite.IsExpired(deps.Now()) {
		if err := db.Model(&models.Invite{}).Where("id = ?", invite.ID).Update("status", models.INVITE_STATUS_EXPIRED).Error; err != nil {
			zap.L().Error("falha ao expirar convite", zap.Int64("invite_id", invite.ID), zap.Error(err))
		}
		RespondError(c, "convite expirado", http.StatusBadRequest)
		return
	}
	if taken, err := emailTaken(db, invite.Email); err != nil {
		RespondAppError(c, err)
		return
	} else if taken {
		RespondError(c, "Usuário já existe", http.StatusBadRequest)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		RespondAppError(c, apperr.Server(err))
		return
	}
	user := models.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     invite.Email,
		Password:  hash,
		Role:      invite.Role,
		CompanyID: invite.CompanyID,
	}
	err = billing.CreateWithinLimit(c.Request.Context(), db, invite.CompanyID, billing.ResourceUsers, func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return apperr.Server(fmt.Errorf("create user: %w", err))
		}
		res := tx.Model(&models.Invite{}).
			Where("id = ? AND status = ?", invite.ID, models.INVITE_STATUS_PENDING).
			Update("status", models.INVITE_STATUS_ACCEPTED)
		if res.Error != nil {
			return apperr.Server(fmt.Errorf("accept invite: %w", res.Error))
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("convite não encontrado")
		}
		return nil
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}

	token, err := IssueToken(user)
	if err != nil {
		RespondAppError(c, apperr.Server(err))
		return
	}
	var company models.Company
	if err := db.First(&company, user.CompanyID).Error; err != nil {
		RespondAppError(c, apperr.Server(fmt.Errorf("load company: %w", err)))
		return
	}
	RespondCreated(c, AuthResponse{Token: token, User: user, Company: company})
}
