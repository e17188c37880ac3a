package handlers

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"estateops/internal/core/apperror"
	"estateops/internal/infrastructure/gateway/sasapay"
)

// PaymentsHandler proxies payment gateway operations.
type PaymentsHandler struct {
	BaseHandler
	gateway *sasapay.Client
}

func NewPaymentsHandler(gateway *sasapay.Client) *PaymentsHandler {
	return &PaymentsHandler{gateway: gateway}
}

// Balance handles GET /payments/balance. Authenticates against the
// gateway on every call; tokens are short-lived and not cached.
func (h *PaymentsHandler) Balance(c *gin.Context) {
	merchantCode := c.Query("merchantCode")
	if merchantCode == "" {
		h.Error(c, apperror.NewValidation("merchantCode is required"))
		return
	}

	token, err := h.gateway.Auth(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.gateway.Balance(c.Request.Context(), merchantCode, token)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Balance retrieved", result)
}

// SubmitKYC handles POST /payments/kyc. The multipart form carries text
// fields plus jpeg/png attachments; director files use the
// directors[i].field naming convention.
func (h *PaymentsHandler) SubmitKYC(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid multipart form").WithCause(err))
		return
	}

	sub := sasapay.KYCSubmission{
		MerchantCode: c.PostForm("merchantCode"),
		Fields:       map[string]string{},
	}
	if sub.MerchantCode == "" {
		h.Error(c, apperror.NewValidation("merchantCode is required"))
		return
	}
	for key, values := range form.Value {
		if key == "merchantCode" || len(values) == 0 {
			continue
		}
		sub.Fields[key] = values[0]
	}
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		file, err := readFormFile(headers[0])
		if err != nil {
			h.Error(c, err)
			return
		}
		file.Field = field
		sub.Files = append(sub.Files, file)
	}

	token, err := h.gateway.Auth(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.gateway.SubmitKYC(c.Request.Context(), token, sub); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "KYC submitted", nil)
}

func readFormFile(header *multipart.FileHeader) (sasapay.KYCFile, error) {
	file, err := header.Open()
	if err != nil {
		return sasapay.KYCFile{}, apperror.NewInternal(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return sasapay.KYCFile{}, apperror.NewInternal(err)
	}

	return sasapay.KYCFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
