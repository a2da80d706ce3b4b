package worker

// stock_alert_worker.go
// Processes low-stock check jobs enqueued after each successful commit.
// Products at or below their minimum stock trigger one alert email.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"scalepos/internal/infra"
	"scalepos/internal/repository"
)

// StockAlertPayload is the job envelope sent to QueueStockAlert.
type StockAlertPayload struct {
	OrderID string `json:"order_id"`
}

type StockAlertWorker struct {
	productRepo repository.ProductRepository
	mailer      *infra.Mailer
	alertEmail  string
}

func NewStockAlertWorker(productRepo repository.ProductRepository, mailer *infra.Mailer, alertEmail string) *StockAlertWorker {
	return &StockAlertWorker{productRepo: productRepo, mailer: mailer, alertEmail: alertEmail}
}

// Process scans for products at or below minimum stock and mails a summary.
// Best-effort: a failed mail is logged, never retried — the low-stock list
// endpoint remains the authoritative view.
func (w *StockAlertWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload StockAlertPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("stock_alert_worker: invalid payload")
		return
	}
	if w.alertEmail == "" {
		return
	}

	products, err := w.productRepo.ListBelowMinStock(ctx)
	if err != nil {
		log.Error().Err(err).Msg("stock_alert_worker: low-stock scan failed")
		return
	}
	if len(products) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The following products are at or below minimum stock (after order %s):\n\n", payload.OrderID)
	for _, p := range products {
		fmt.Fprintf(&b, "  %-40s  stock %s (min %s)\n", p.Name, p.StockQuantity, p.MinStock)
	}

	subject := fmt.Sprintf("Low stock alert: %d product(s)", len(products))
	if err := w.mailer.Send(w.alertEmail, subject, b.String()); err != nil {
		log.Error().Err(err).Str("to", w.alertEmail).Msg("stock_alert_worker: failed to send alert")
		return
	}
	log.Info().Int("products", len(products)).Msg("stock_alert_worker: alert sent")
}
