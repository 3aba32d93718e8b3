// Command expire-orders cancels payment orders that have sat open past the
// TTL, releasing their applications' open-order slots. Intended to run from
// cron.
package main

import (
	"context"
	"log"
	"time"
	"visa-management-api/config"
	"visa-management-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := services.NewPaymentService(nil, nil, nil)
	released, err := svc.ExpireStaleOrders(ctx)
	if err != nil {
		log.Fatal("Failed to expire stale orders:", err)
	}

	log.Printf("Released %d stale payment orders", released)
}
