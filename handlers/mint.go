// handlers/mint.go
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"nft-mint-service/models"
	"nft-mint-service/services"
	"nft-mint-service/store"
)

type MintHandler struct {
	mints             *services.MintService
	parser            *services.ReceiptParser
	defaultBlockchain string
	log               *logrus.Logger
}

func NewMintHandler(mints *services.MintService, parser *services.ReceiptParser, defaultBlockchain string, log *logrus.Logger) *MintHandler {
	return &MintHandler{
		mints:             mints,
		parser:            parser,
		defaultBlockchain: defaultBlockchain,
		log:               log,
	}
}

func SetupMintRoutes(api fiber.Router, h *MintHandler) {
	api.Post("/nfts/mint", h.Mint)
	api.Post("/nfts/mint/batch", h.MintBatch)
	api.Get("/mints/:id", h.GetMint)
	api.Get("/receipts/:txHash/tokens", h.ReceiptTokens)
}

// Mint runs a single gasless mint synchronously and returns the result. The
// request context is passed through so a client disconnect releases the poll
// loop instead of burning its full wait budget.
func (h *MintHandler) Mint(c *fiber.Ctx) error {
	var req models.MintRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Blockchain == "" {
		req.Blockchain = h.defaultBlockchain
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if _, err := models.ChainByName(req.Blockchain); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     err.Error(),
			"supported": models.ChainNames(),
		})
	}

	result, err := h.mints.Mint(c.Context(), req)
	if err != nil {
		return h.mintError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// MintBatch mints the items serially and always answers 200 with per-item
// outcomes; one failed item does not fail the request.
func (h *MintHandler) MintBatch(c *fiber.Ctx) error {
	var req models.BatchMintRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Blockchain == "" {
		req.Blockchain = h.defaultBlockchain
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if _, err := models.ChainByName(req.Blockchain); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     err.Error(),
			"supported": models.ChainNames(),
		})
	}

	return c.JSON(h.mints.MintBatch(c.Context(), req))
}

func (h *MintHandler) GetMint(c *fiber.Ctx) error {
	task, err := h.mints.GetTask(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "mint task not found"})
		}
		h.log.WithError(err).Error("mint task lookup failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "storage error"})
	}
	return c.JSON(task)
}

// ReceiptTokens re-reads a receipt on demand: single mint event token ID plus
// any batch event token IDs. Useful when a task is stuck on "pending".
func (h *MintHandler) ReceiptTokens(c *fiber.Ctx) error {
	txHash := c.Params("txHash")
	blockchain := c.Query("blockchain", h.defaultBlockchain)
	if _, err := models.ChainByName(blockchain); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     err.Error(),
			"supported": models.ChainNames(),
		})
	}

	tokenIDs := h.parser.ExtractTokenIDs(c.Context(), txHash, blockchain)
	if tokenIDs == nil {
		tokenIDs = []string{}
	}
	return c.JSON(fiber.Map{
		"token_id":  h.parser.ExtractTokenID(c.Context(), txHash, blockchain),
		"token_ids": tokenIDs,
	})
}

// mintError maps the workflow error taxonomy onto HTTP statuses: caller
// mistakes are 4xx, upstream provider failures are 502, an exhausted poll
// budget is 504.
func (h *MintHandler) mintError(c *fiber.Ctx, err error) error {
	stage, taskID := "", ""
	var failed *models.MintFailedError
	if errors.As(err, &failed) {
		stage = failed.Stage
		taskID = failed.TaskID
	}

	status := fiber.StatusInternalServerError
	var providerErr *models.WalletProviderError
	var sponsorErr *models.SponsorshipAPIError
	var txFailed *models.TransactionFailedError
	var timeout *models.TransactionTimeoutError

	switch {
	case errors.Is(err, models.ErrInsufficientBalance):
		status = fiber.StatusPaymentRequired
	case errors.Is(err, models.ErrUnsupportedChain):
		status = fiber.StatusBadRequest
	case errors.As(err, &timeout):
		status = fiber.StatusGatewayTimeout
	case errors.As(err, &providerErr), errors.As(err, &sponsorErr), errors.As(err, &txFailed):
		status = fiber.StatusBadGateway
	}

	return c.Status(status).JSON(fiber.Map{
		"error":   err.Error(),
		"stage":   stage,
		"task_id": taskID,
	})
}
