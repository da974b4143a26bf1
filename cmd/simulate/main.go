package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"conecta-ongs/internal/config"
	"conecta-ongs/internal/database"
	"conecta-ongs/internal/domain"
	"conecta-ongs/internal/flow"
	"conecta-ongs/internal/logging"
	"conecta-ongs/internal/repo"
	"conecta-ongs/internal/service"
	"conecta-ongs/internal/worker"

	"github.com/google/uuid"
)

// script is one donor's path through the widget.
type script struct {
	mode   domain.Mode
	amount string
	method domain.PaymentMethod
	// abandon goes back while the payment is processing
	abandon bool
}

var scripts = []script{
	{domain.ModeOverlay, "35", domain.MethodPix, false},
	{domain.ModeOverlay, "100", domain.MethodCard, false},
	{domain.ModeOverlay, "7", domain.MethodPix, false},
	{domain.ModeOverlay, "80", domain.MethodCard, true},
	{domain.ModeSandbox, "150", domain.MethodPix, false},
	{domain.ModeSandbox, "57.25", domain.MethodCard, false},
}

func main() {
	n := flag.Int("n", 12, "number of donation sessions to run")
	persist := flag.Bool("persist", false, "store receipts in postgres and read them back")
	configDir := flag.String("config", ".", "directory holding config.yaml")
	flag.Parse()

	ctx := context.Background()
	cfg := config.MustLoadConfig(*configDir)
	logger := logging.GetLogger(config.Logs{Level: "warn"})

	deps := service.DonationDeps{Logger: logger}
	var receipts repo.ReceiptRepo
	if *persist {
		db, err := database.New(ctx, cfg.Database, logger)
		if err != nil {
			log.Fatalf("cannot connect to database: %v", err)
		}
		defer db.Close()
		receipts = repo.NewReceiptRepo(db.DB())
		deps.Receipts = receipts
	}

	// the real delays, scaled down so a run takes seconds
	fast := flow.Delays{
		Processing: 200 * time.Millisecond,
		Reset:      300 * time.Millisecond,
		Copied:     200 * time.Millisecond,
	}
	donations := service.NewDonationService(service.DonationConfig{
		Overlay: fast,
		Sandbox: flow.Delays{Processing: 300 * time.Millisecond, Copied: fast.Copied},
		PixKey:  cfg.Donation.PixKey,
	}, deps)

	fmt.Printf("--- STARTING SIMULATION (%d SESSIONS) ---\n", *n)
	for i := 0; i < *n; i++ {
		sc := scripts[i%len(scripts)]
		id := donations.Create(sc.mode).SessionID

		fmt.Printf("[%d] %s session %s: R$ %s via %s ... ", i+1, sc.mode, id, sc.amount, sc.method)
		final, err := run(donations, id, sc, fast.Processing)
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			continue
		}
		fmt.Printf("%s[%s] amount %s\n", final.Screen, final.Status, final.AmountLabel)

		if receipts != nil {
			donations.Wait()
			stored, _ := receipts.ListBySession(ctx, id)
			fmt.Printf("    -> receipts in DB: %d\n", len(stored))
		}
		fmt.Println("---------------------------------------------------")
	}

	donations.Wait()
	fmt.Printf("Live sessions before reaping: %d\n", donations.Count())

	reaper := worker.NewSessionReaper(donations, 500*time.Millisecond, 250*time.Millisecond, nil, logger)
	reapCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	reaper.Run(reapCtx)

	fmt.Printf("Live sessions after reaping: %d\n", donations.Count())
}

func run(svc service.DonationService, id uuid.UUID, sc script, processing time.Duration) (flow.View, error) {
	steps := []service.EventRequest{
		{Type: "set_custom_amount", Value: sc.amount},
		{Type: "open_popup"},
		{Type: "choose_method", Method: string(sc.method)},
	}
	if sc.method == domain.MethodPix {
		steps = append(steps, service.EventRequest{Type: service.EventCopyPixKey})
	}
	steps = append(steps, service.EventRequest{Type: "simulate_payment"})

	for _, req := range steps {
		if _, err := svc.Dispatch(id, req); err != nil {
			return flow.View{}, err
		}
	}

	if sc.abandon {
		time.Sleep(processing / 2)
		if _, err := svc.Dispatch(id, service.EventRequest{Type: "go_back"}); err != nil {
			return flow.View{}, err
		}
		// the abandoned payment must never complete
		time.Sleep(processing)
		return svc.View(id)
	}

	deadline := time.Now().Add(5 * processing)
	for time.Now().Before(deadline) {
		v, err := svc.View(id)
		if err != nil {
			return flow.View{}, err
		}
		if v.Status == domain.PaymentApproved {
			return v, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return flow.View{}, fmt.Errorf("session %s never approved", id)
}
