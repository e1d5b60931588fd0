package main

import (
	"context"
	"log"

	"smart-gateway-be/internal/bootstrap"
	"smart-gateway-be/internal/config"
	"smart-gateway-be/internal/model"
	"smart-gateway-be/internal/server"
	"smart-gateway-be/internal/tracer"
	"smart-gateway-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database. The gateway keeps answering from memory
	// when no database is reachable; persistence and vector search
	// simply stay off.
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Printf("[WARN] Unable to connect to GORM DB, running without persistence: %v", err)
		} else {
			if err := db.AutoMigrate(&model.ChatLog{}, &model.KBChunk{}); err != nil {
				log.Printf("[WARN] AutoMigrate failed: %v", err)
			}
			gormDB = db
		}
	} else {
		log.Println("[INFO] DB_CONNECTION_STRING not set, running without persistence")
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.SessionStore.Close()

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting KB Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()
	if err := container.IngressService.Run(); err != nil {
		log.Printf("[WARN] Bus ingress failed to start: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
