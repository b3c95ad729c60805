// Command verify-demo runs one experience verification end to end with
// simulated providers: it gathers evidence concurrently, prints stage
// transitions as they happen, records the verdict on an in-memory
// ledger, and recomputes the claimant's trust score.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/truthstream/verity/infrastructure/collectors"
	"github.com/truthstream/verity/infrastructure/history"
	"github.com/truthstream/verity/infrastructure/ledger"
	"github.com/truthstream/verity/infrastructure/progress"
	"github.com/truthstream/verity/infrastructure/providers"
	"github.com/truthstream/verity/internal/application"
	"github.com/truthstream/verity/internal/ports"
)

func main() {
	var (
		merchant   = flag.String("merchant", "Cafe Flore", "Claimed merchant or venue")
		amount     = flag.Float64("amount", 42.50, "Claimed spend")
		postRef    = flag.String("post", "post-8841", "Social post reference")
		configPath = flag.String("config", "", "Optional orchestrator config YAML")
		failKind   = flag.String("fail", "", "Simulate a provider failure (location, payment, social)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := application.DefaultConfig()
	if *configPath != "" {
		loaded, err := application.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	locationProvider := &providers.SimulatedLocationClient{
		Latency: 150 * time.Millisecond, Lat: 48.8540, Lon: 2.3325, AccuracyMeters: 12,
		Fail: *failKind == "location",
	}
	paymentProvider := &providers.SimulatedPaymentClient{
		Latency: 220 * time.Millisecond, AttestAmount: true,
		Fail: *failKind == "payment",
	}
	socialProvider := &providers.SimulatedSocialClient{
		Latency: 90 * time.Millisecond, Engagement: 37,
		Fail: *failKind == "social",
	}

	locationCollector, err := collectors.NewLocationCollector(
		providers.Chain(locationProvider, providers.TracingMiddleware()))
	if err != nil {
		log.Fatalf("building location collector: %v", err)
	}
	paymentCollector, err := collectors.NewPaymentCollector(
		providers.Chain(paymentProvider, providers.TracingMiddleware()))
	if err != nil {
		log.Fatalf("building payment collector: %v", err)
	}
	socialCollector, err := collectors.NewSocialCollector(
		providers.Chain(socialProvider, providers.TracingMiddleware()))
	if err != nil {
		log.Fatalf("building social collector: %v", err)
	}

	recorder := ledger.NewMemoryRecorder()
	sink := progress.NewSlogSink(logger, 0)
	defer sink.Close()

	orchestrator, err := application.NewOrchestrator(cfg,
		[]ports.Collector{locationCollector, paymentCollector, socialCollector},
		recorder,
		application.WithProgressSink(sink),
	)
	if err != nil {
		log.Fatalf("building orchestrator: %v", err)
	}

	claim := ports.Claim{
		ExperienceID:  "exp-demo-001",
		UserID:        "user-demo",
		Merchant:      *merchant,
		Amount:        *amount,
		SocialPostRef: *postRef,
		OccurredAt:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := orchestrator.Verify(ctx, claim)
	if err != nil {
		logger.Error("verification run ended with error", slog.String("error", err.Error()))
	}

	fmt.Printf("\nVerdict %s\n", result.Verdict.ID)
	fmt.Printf("- verified:   %t\n", result.Verdict.Verified)
	fmt.Printf("- confidence: %.3f\n", result.Verdict.OverallConfidence)
	for i, proof := range result.Verdict.Proofs {
		if proof == nil {
			fmt.Printf("- proof %d:    missing\n", i)
			continue
		}
		fmt.Printf("- proof %d:    %s confidence=%.2f hash=%s...\n",
			i, proof.Kind, proof.Confidence, proof.DataHash[:12])
	}
	if result.RecordID != "" {
		fmt.Printf("- record id:  %s\n", result.RecordID)
	}

	if result.RecordID == "" {
		return
	}

	store := history.NewMemoryStore()
	trust, err := application.NewTrustService(store, nil)
	if err != nil {
		log.Fatalf("building trust service: %v", err)
	}
	score, err := trust.RecordOutcome(ctx, result.Verdict)
	if err != nil {
		log.Fatalf("recomputing trust score: %v", err)
	}
	fmt.Printf("- trust score: %d\n", score)
}
