package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ceramicnetwork/go-mint"
	"github.com/ceramicnetwork/go-mint/common/config"
	"github.com/ceramicnetwork/go-mint/common/ipfs"
	"github.com/ceramicnetwork/go-mint/common/utils"
	"github.com/ceramicnetwork/go-mint/models"
)

const ServiceName = "pinata"

const (
	pinFilePath = "/pinning/pinFileToIPFS"
	pinJsonPath = "/pinning/pinJSONToIPFS"
)

const defaultFilename = "upload"
const maxResponseBytes = 64 * 1024
const maxDiagnosticLen = 200

var _ models.ContentPinner = &Client{}

// Client pins content through the Pinata HTTP API. The bearer credential stays inside the client and is only ever
// written to the outbound Authorization header.
type Client struct {
	apiUrl        string
	jwt           config.Secret
	httpClient    *http.Client
	logger        models.Logger
	metricService models.MetricService
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type errorResponse struct {
	Error   json.RawMessage `json:"error"`
	Details string          `json:"details"`
}

type errorDetail struct {
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

func NewClient(logger models.Logger, apiUrl string, jwt config.Secret, metricService models.MetricService) *Client {
	return &Client{
		apiUrl:        strings.TrimSuffix(apiUrl, "/"),
		jwt:           jwt,
		httpClient:    &http.Client{},
		logger:        logger,
		metricService: metricService,
	}
}

func (c *Client) PinBinary(ctx context.Context, upload models.UploadRequest) (*models.PinResult, error) {
	if !c.jwt.IsSet() {
		return nil, &models.ConfigurationError{Setting: mint.Env_PinataJwt}
	}
	filename := upload.Filename
	if len(filename) == 0 {
		filename = defaultFilename
	}
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	if part, err := writer.CreateFormFile("file", filename); err != nil {
		return nil, err
	} else if _, err = part.Write(upload.Payload); err != nil {
		return nil, err
	}
	if pinMetadata, err := json.Marshal(map[string]string{"name": filename}); err != nil {
		return nil, err
	} else if err = writer.WriteField("pinataMetadata", string(pinMetadata)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	c.logger.Debugf("pinata: pinning file %s (%d bytes)", filename, len(upload.Payload))
	return c.pin(ctx, pinFilePath, writer.FormDataContentType(), body)
}

func (c *Client) PinJson(ctx context.Context, document any) (*models.PinResult, error) {
	if !c.jwt.IsSet() {
		return nil, &models.ConfigurationError{Setting: mint.Env_PinataJwt}
	}
	docBytes, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("pinata: error encoding document: %w", err)
	}
	c.logger.Debugf("pinata: pinning json document (%d bytes)", len(docBytes))
	return c.pin(ctx, pinJsonPath, "application/json", bytes.NewReader(docBytes))
}

func (c *Client) pin(ctx context.Context, path, contentType string, body io.Reader) (*models.PinResult, error) {
	start := time.Now()
	defer func() {
		c.metricService.Distribution(ctx, models.MetricName_PinDurationMs, int(time.Since(start).Milliseconds()))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiUrl+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.jwt.Reveal())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metricService.Count(ctx, models.MetricName_PinError, 1)
		return nil, &models.RemoteServiceError{Service: ServiceName, Message: c.diagnostic(err.Error()), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metricService.Count(ctx, models.MetricName_PinError, 1)
		return nil, &models.RemoteServiceError{Service: ServiceName, StatusCode: resp.StatusCode, Message: "error reading response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metricService.Count(ctx, models.MetricName_PinError, 1)
		c.logger.Errorf("pinata: %s returned %d", path, resp.StatusCode)
		return nil, &models.RemoteServiceError{
			Service:    ServiceName,
			StatusCode: resp.StatusCode,
			Message:    c.diagnostic(errorMessage(respBody, resp.StatusCode)),
		}
	}

	pinResp := new(pinResponse)
	if err = json.Unmarshal(respBody, pinResp); err != nil {
		c.metricService.Count(ctx, models.MetricName_PinError, 1)
		return nil, &models.RemoteServiceError{Service: ServiceName, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	if err = ipfs.CheckCid(pinResp.IpfsHash); err != nil {
		c.metricService.Count(ctx, models.MetricName_PinError, 1)
		return nil, &models.RemoteServiceError{Service: ServiceName, StatusCode: resp.StatusCode, Message: c.diagnostic(err.Error()), Err: err}
	}
	c.logger.Debugf("pinata: pinned %s via %s", pinResp.IpfsHash, path)
	return &models.PinResult{Cid: pinResp.IpfsHash}, nil
}

// errorMessage extracts a short diagnostic from either `{"error": "...", "details": "..."}` or
// `{"error": {"reason": "...", "details": "..."}}` bodies, falling back to the status text.
func errorMessage(body []byte, statusCode int) string {
	errResp := new(errorResponse)
	if err := json.Unmarshal(body, errResp); err == nil && len(errResp.Error) > 0 {
		var reason, details string
		detail := new(errorDetail)
		if err = json.Unmarshal(errResp.Error, &reason); err == nil {
			details = errResp.Details
		} else if err = json.Unmarshal(errResp.Error, detail); err == nil {
			reason, details = detail.Reason, detail.Details
		}
		if len(reason) > 0 {
			if len(details) > 0 {
				return reason + ": " + details
			}
			return reason
		}
	}
	return http.StatusText(statusCode)
}

// diagnostic shortens a message for callers and scrubs the credential in case the service echoed it back.
func (c *Client) diagnostic(msg string) string {
	if c.jwt.IsSet() {
		msg = strings.ReplaceAll(msg, c.jwt.Reveal(), c.jwt.String())
	}
	if len(msg) > maxDiagnosticLen {
		return utils.TruncateUtf8(msg, maxDiagnosticLen) + "..."
	}
	return msg
}
