// Seeds the catalog with sample products so a fresh environment has
// something to browse and check out against.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/avelarde/storefront/internal/adapter/storage"
	"github.com/avelarde/storefront/internal/config"
	"github.com/avelarde/storefront/internal/core/domain"
)

var products = []domain.Product{
	{Title: "Laptop Dell XPS 13", Description: "Ultralight developer laptop, i7, 16GB RAM, 512GB SSD.", Code: "DELL-XPS-001", Price: 1200, Stock: 15, Category: "electronics", Status: true},
	{Title: "Monitor LG 32\"", Description: "4K monitor with accurate color and wide viewing angle.", Code: "MON-LG-001", Price: 600, Stock: 8, Category: "monitors", Status: true},
	{Title: "Mechanical RGB Keyboard", Description: "Cherry MX switches, customizable RGB lighting.", Code: "KBD-MECH-001", Price: 150, Stock: 25, Category: "peripherals", Status: true},
	{Title: "Wireless Mouse", Description: "Ergonomic 2.4GHz mouse with adjustable DPI.", Code: "MOUSE-WL-001", Price: 45, Stock: 40, Category: "peripherals", Status: true},
	{Title: "USB-C Hub", Description: "7-in-1 hub with HDMI, card reader and PD charging.", Code: "HUB-USBC-001", Price: 60, Stock: 30, Category: "accessories", Status: true},
	{Title: "Noise Cancelling Headphones", Description: "Over-ear headphones with 30h battery life.", Code: "HDPH-NC-001", Price: 280, Stock: 12, Category: "audio", Status: true},
	{Title: "Webcam 1080p", Description: "Full HD webcam with built-in dual microphones.", Code: "CAM-FHD-001", Price: 85, Stock: 0, Category: "peripherals", Status: true},
}

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	if err := storage.ApplySchema(ctx, db); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	repo := storage.NewProductAdapter(db)
	seeded := 0
	for _, p := range products {
		p.ID = uuid.NewString()
		p.Thumbnails = []string{}
		if err := repo.Create(ctx, &p); errors.Is(err, domain.ErrDuplicateCode) {
			log.Printf("skipping %s: already seeded", p.Code)
			continue
		} else if err != nil {
			log.Fatalf("failed to seed %s: %v", p.Code, err)
		}
		seeded++
	}
	log.Printf("seeded %d products", seeded)
}
