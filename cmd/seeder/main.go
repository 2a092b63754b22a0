package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/joho/godotenv"

	"github.com/brightsend/campaign-engine/internal/db"
)

// Seeds demo customers with a spread of spend/visit/recency values so
// segment rules have something to bite on.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	conn, err := db.Open(db.FromEnv())
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}
	defer conn.Close()

	names := []string{"Alice", "Bob", "Carol", "David", "Esther", "Frank", "Grace", "Hassan", "Irene", "James"}

	for i, name := range names {
		email := fmt.Sprintf("%s%d@example.com", name, i+1)
		spend := float64(rand.Intn(5000))
		visits := rand.Intn(20)
		lastActive := time.Now().AddDate(0, 0, -rand.Intn(90))

		_, err := conn.Exec(`
            INSERT INTO customers (name, email, total_spend, visits, last_active_at)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (email) DO NOTHING
        `, name, email, spend, visits, lastActive)
		if err != nil {
			log.Println("failed to insert customer:", err)
			continue
		}
	}

	log.Println("seeding complete")
}
