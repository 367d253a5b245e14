// services/metadata_service.go
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"

	"nft-mint-service/metrics"
	"nft-mint-service/models"
)

// MetadataPinner is the slice of the pinning API the metadata service needs.
// *PinningClient satisfies it.
type MetadataPinner interface {
	Configured() bool
	PinJSON(ctx context.Context, name string, content any) (string, error)
}

// MetadataService publishes NFT metadata and never fails: when the pinning
// service is unconfigured or errors, it degrades to a stub URI so the mint
// can proceed. Stub URIs carry an unmistakable prefix and are logged loudly.
type MetadataService struct {
	pinner      MetadataPinner
	gatewayBase string
	log         *logrus.Logger
}

func NewMetadataService(pinner MetadataPinner, gatewayBase string, log *logrus.Logger) *MetadataService {
	return &MetadataService{
		pinner:      pinner,
		gatewayBase: strings.TrimRight(gatewayBase, "/"),
		log:         log,
	}
}

// Publish pins the metadata JSON and returns its gateway URI.
func (s *MetadataService) Publish(ctx context.Context, md models.NFTMetadata) string {
	if !s.pinner.Configured() {
		return s.stubURI(md.Name, "pinning service not configured", nil)
	}

	hash, err := s.pinner.PinJSON(ctx, pinName(md.Name), md)
	if err != nil {
		return s.stubURI(md.Name, "pin request failed", err)
	}

	uri := fmt.Sprintf("%s/%s", s.gatewayBase, hash)
	s.log.WithFields(logrus.Fields{
		"name": md.Name,
		"uri":  uri,
	}).Info("metadata pinned")
	return uri
}

func (s *MetadataService) stubURI(name, reason string, cause error) string {
	buf := make([]byte, 16)
	rand.Read(buf)
	uri := "ipfs://stub-" + hex.EncodeToString(buf)

	entry := s.log.WithFields(logrus.Fields{
		"name":   name,
		"uri":    uri,
		"stub":   true,
		"reason": reason,
	})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Warn("metadata publish degraded to stub URI")

	metrics.MetadataStubs.Inc()
	return uri
}

// pinName builds a readable pin label from the NFT name.
func pinName(name string) string {
	s := slug.Make(name)
	if s == "" {
		return "nft-metadata"
	}
	if len(s) > 48 {
		s = s[:48]
	}
	return s
}
