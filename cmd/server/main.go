package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/brightsend/campaign-engine/internal/ai"
	"github.com/brightsend/campaign-engine/internal/db"
	"github.com/brightsend/campaign-engine/internal/handler"
	"github.com/brightsend/campaign-engine/internal/queue"
	"github.com/brightsend/campaign-engine/internal/repository"
	"github.com/brightsend/campaign-engine/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	conn, err := db.Open(db.FromEnv())
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	defer conn.Close()

	customerRepo := &repository.CustomerRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	logRepo := &repository.DeliveryLogRepository{DB: conn}

	audienceService := &service.AudienceService{CustomerRepo: customerRepo}
	deliveryService := &service.DeliveryService{
		CampaignRepo: campaignRepo,
		CustomerRepo: customerRepo,
		LogRepo:      logRepo,
	}
	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		LogRepo:      logRepo,
	}

	// Async simulations go through AMQP when a broker is configured,
	// otherwise through the in-process queue.
	var enqueuer handler.SimulationEnqueuer
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		pub, err := queue.DialAMQP(amqpURL)
		if err != nil {
			log.Fatalf("failed to connect to broker: %v", err)
		}
		defer pub.Close()
		enqueuer = pub
	} else {
		q := queue.NewInMemoryQueue()
		queue.StartSimulationSubscriber(q, deliveryService)
		enqueuer = inMemoryEnqueuer{q}
	}

	generator := ai.NewGenerator(os.Getenv("AI_API_KEY"))

	segmentHandler := &handler.SegmentHandler{Audience: audienceService}
	campaignHandler := &handler.CampaignHandler{
		Campaigns: campaignService,
		Delivery:  deliveryService,
		Enqueuer:  enqueuer,
	}
	aiHandler := &handler.AIHandler{Generator: generator}

	r := chi.NewRouter()

	r.Post("/segments/estimate", segmentHandler.EstimateAudience)
	r.Post("/segments/match", segmentHandler.MatchCustomer)

	r.Post("/campaigns", campaignHandler.CreateCampaign)
	r.Get("/campaigns", campaignHandler.ListCampaigns)
	r.Get("/campaigns/{id}", campaignHandler.GetCampaign)
	r.Post("/campaigns/{id}/simulate", campaignHandler.SimulateDelivery)
	r.Post("/campaigns/{id}/personalized-preview", campaignHandler.PersonalizedPreview)

	r.Post("/ai/messages", aiHandler.GenerateMessages)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("server running on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

// inMemoryEnqueuer adapts the in-process queue to the handler's enqueuer.
type inMemoryEnqueuer struct {
	q queue.Queue
}

func (e inMemoryEnqueuer) PublishSimulation(campaignID int) error {
	return e.q.Publish(queue.TopicSimulations, campaignID)
}
