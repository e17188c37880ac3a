// Package sasapay integrates the SasaPay merchant API: OAuth token,
// account balance, and merchant KYC submission.
package sasapay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"estateops/internal/core/apperror"
	"estateops/pkg/logger"
)

// Config holds the merchant credentials.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// Client talks to the SasaPay API.
type Client struct {
	cfg    Config
	client *http.Client
	log    *logger.Logger
}

// NewClient creates the gateway client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.WithComponent("gateway.sasapay"),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Auth obtains a bearer token via client-credentials.
func (c *Client) Auth(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/api/v1/auth/token/?grant_type=client_credentials", nil)
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperror.NewGatewayUnavailable(fmt.Errorf("sasapay auth: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.rejected(resp)
	}
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", apperror.NewGatewayRejected("sasapay returned an empty token", "")
	}
	return tok.AccessToken, nil
}

// BalanceResult is the merchant account balance.
type BalanceResult struct {
	ResponseCode      string `json:"ResponseCode"`
	Message           string `json:"Message"`
	OrgAccountBalance string `json:"OrgAccountBalance"`
}

// Balance fetches the merchant account balance.
func (c *Client) Balance(ctx context.Context, merchantCode, token string) (*BalanceResult, error) {
	payload, _ := json.Marshal(map[string]string{"MerchantCode": merchantCode})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/v1/payments/check-balance/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build balance request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperror.NewGatewayUnavailable(fmt.Errorf("sasapay balance: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.rejected(resp)
	}
	var result BalanceResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode balance response: %w", err)
	}
	// The API reports rejections with HTTP 200 and a non-zero code.
	if result.ResponseCode != "" && result.ResponseCode != "0" {
		return nil, apperror.NewGatewayRejected(result.Message, result.ResponseCode)
	}
	return &result, nil
}

// KYCFile is one uploaded document image.
type KYCFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// DirectorKYC carries one director's identification documents.
type DirectorKYC struct {
	Name  string
	Files []KYCFile
}

// KYCSubmission is the merchant onboarding payload.
type KYCSubmission struct {
	MerchantCode string
	Fields       map[string]string
	Files        []KYCFile
	Directors    []DirectorKYC
}

// allowedImageTypes are the content types the API accepts for document
// scans.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

func validateFile(f KYCFile) error {
	if !allowedImageTypes[f.ContentType] {
		return apperror.NewValidation("KYC documents must be JPEG or PNG").
			WithDetail("field", f.Field).
			WithDetail("contentType", f.ContentType)
	}
	if len(f.Data) == 0 {
		return apperror.NewValidation("KYC document is empty").WithDetail("field", f.Field)
	}
	return nil
}

// SubmitKYC uploads the merchant onboarding documents. Every file is
// validated locally before any byte is transmitted.
func (c *Client) SubmitKYC(ctx context.Context, token string, sub KYCSubmission) error {
	for _, f := range sub.Files {
		if err := validateFile(f); err != nil {
			return err
		}
	}
	for _, d := range sub.Directors {
		for _, f := range d.Files {
			if err := validateFile(f); err != nil {
				return err
			}
		}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("MerchantCode", sub.MerchantCode)
	for k, v := range sub.Fields {
		_ = writer.WriteField(k, v)
	}
	for _, f := range sub.Files {
		if err := writeFilePart(writer, f.Field, f); err != nil {
			return err
		}
	}
	for i, d := range sub.Directors {
		prefix := fmt.Sprintf("directors[%d]", i)
		_ = writer.WriteField(prefix+".name", d.Name)
		for _, f := range d.Files {
			if err := writeFilePart(writer, fmt.Sprintf("%s.%s", prefix, f.Field), f); err != nil {
				return err
			}
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/api/v1/merchants/kyc/", &body)
	if err != nil {
		return fmt.Errorf("build kyc request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return apperror.NewGatewayUnavailable(fmt.Errorf("sasapay kyc: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.rejected(resp)
	}
	c.log.WithContext(ctx).Infow("kyc submitted", "merchant_code", sub.MerchantCode)
	return nil
}

func writeFilePart(w *multipart.Writer, field string, f KYCFile) error {
	part, err := w.CreateFormFile(field, f.Filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	return nil
}

func (c *Client) rejected(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return apperror.NewGatewayRejected(
		fmt.Sprintf("sasapay returned %d: %s", resp.StatusCode, string(msg)),
		fmt.Sprintf("%d", resp.StatusCode))
}
