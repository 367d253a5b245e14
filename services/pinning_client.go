// services/pinning_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nft-mint-service/models"
)

// PinningClient posts JSON documents to a Pinata-compatible pinning API and
// returns the content hash. Callers that need never-fail semantics wrap it
// (see MetadataService).
type PinningClient struct {
	BaseURL string
	JWT     string
	Client  *http.Client
}

func NewPinningClient(baseURL, jwt string) *PinningClient {
	return &PinningClient{
		BaseURL: baseURL,
		JWT:     jwt,
		Client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Configured reports whether the client holds credentials. Without them every
// PinJSON call would be rejected, so callers skip straight to their fallback.
func (c *PinningClient) Configured() bool {
	return c.BaseURL != "" && c.JWT != ""
}

type pinJSONRequest struct {
	PinataContent  any            `json:"pinataContent"`
	PinataMetadata pinataMetadata `json:"pinataMetadata"`
	PinataOptions  *pinataOptions `json:"pinataOptions,omitempty"`
}

type pinataMetadata struct {
	Name string `json:"name"`
}

type pinataOptions struct {
	CidVersion int `json:"cidVersion"`
}

type pinJSONResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// PinJSON uploads content under the given pin name and returns the IPFS hash.
func (c *PinningClient) PinJSON(ctx context.Context, name string, content any) (string, error) {
	url := fmt.Sprintf("%s/pinning/pinJSONToIPFS", c.BaseURL)

	jsonData, err := json.Marshal(pinJSONRequest{
		PinataContent:  content,
		PinataMetadata: pinataMetadata{Name: name},
		PinataOptions:  &pinataOptions{CidVersion: 1},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.JWT)

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pinJSONToIPFS returned %d: %s", resp.StatusCode, string(raw))
	}

	var out pinJSONResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode pin response: %w", models.ErrMalformedResponse)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pin response missing hash: %w", models.ErrMalformedResponse)
	}
	return out.IpfsHash, nil
}
