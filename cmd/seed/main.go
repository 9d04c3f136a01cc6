package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stellar/internal/config"
	"stellar/internal/db"
	"stellar/internal/model"
	"stellar/internal/repository"
)

type seedProduct struct {
	sku      string
	name     string
	desc     string
	slug     string
	price    string
	stock    int
	category string
}

var seedCategories = []model.Category{
	{Name: "Engineering", Slug: "engineering", Description: "Posts about software and systems"},
	{Name: "Announcements", Slug: "announcements", Description: "Product and company news"},
	{Name: "Hardware", Slug: "hardware", Description: "Physical goods"},
	{Name: "Merch", Slug: "merch", Description: "Apparel and accessories"},
}

var seedProducts = []seedProduct{
	{sku: "STL-KB-001", name: "Mechanical Keyboard", slug: "mechanical-keyboard", desc: "87-key tenkeyless, hot-swappable switches", price: "129.00", stock: 40, category: "hardware"},
	{sku: "STL-MS-002", name: "Wireless Mouse", slug: "wireless-mouse", desc: "Low-latency 2.4GHz wireless mouse", price: "59.50", stock: 120, category: "hardware"},
	{sku: "STL-TS-003", name: "Logo T-Shirt", slug: "logo-t-shirt", desc: "100% cotton, unisex fit", price: "24.99", stock: 300, category: "merch"},
	{sku: "STL-MG-004", name: "Ceramic Mug", slug: "ceramic-mug", desc: "350ml ceramic mug", price: "14.00", stock: 200, category: "merch"},
}

func main() {
	log.Println("Starting seed script...")

	_ = godotenv.Load()
	cfg := config.Load()

	gormDB, err := db.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()

	if err := seedAdmin(ctx, gormDB); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	categoryRepo := repository.NewCategoryRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)

	categories, created, err := ensureCategories(ctx, categoryRepo)
	if err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}
	log.Printf("Categories: %d created", created)

	created, err = ensureProducts(ctx, productRepo, categories)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}
	log.Printf("Products: %d created", created)

	log.Println("Seed completed successfully!")
}

// seedAdmin creates the initial admin account if none exists. The password
// comes from SEED_ADMIN_PASSWORD and defaults to a development-only value.
func seedAdmin(ctx context.Context, gormDB *gorm.DB) error {
	userRepo := repository.NewUserRepository(gormDB)

	if existing, err := userRepo.FindByEmail(ctx, "admin@stellar.local"); err == nil && existing != nil {
		log.Println("Admin account already exists, skipping")
		return nil
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin-change-me"
		log.Println("SEED_ADMIN_PASSWORD not set, using default development password")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Username:      "admin",
		Email:         "admin@stellar.local",
		PasswordHash:  string(hashed),
		Role:          model.RoleAdmin,
		Active:        true,
		EmailVerified: true,
	}
	if err := userRepo.Create(ctx, &admin); err != nil {
		return err
	}
	log.Printf("Admin account created: %s", admin.Email)
	return nil
}

func ensureCategories(ctx context.Context, repo repository.CategoryRepository) (map[string]*model.Category, int, error) {
	bySlug := make(map[string]*model.Category, len(seedCategories))
	created := 0
	for i := range seedCategories {
		category := seedCategories[i]
		existing, err := repo.FindBySlug(ctx, category.Slug)
		if err == nil {
			bySlug[category.Slug] = existing
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return nil, created, err
		}
		if err := repo.Create(ctx, &category); err != nil {
			return nil, created, err
		}
		bySlug[category.Slug] = &category
		created++
	}
	return bySlug, created, nil
}

func ensureProducts(ctx context.Context, repo repository.ProductRepository, categories map[string]*model.Category) (int, error) {
	created := 0
	for _, item := range seedProducts {
		if existing, err := repo.FindBySKU(ctx, item.sku); err == nil && existing != nil {
			continue
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return created, err
		}

		price, err := decimal.NewFromString(item.price)
		if err != nil {
			return created, err
		}
		product := model.Product{
			SKU:         item.sku,
			Slug:        item.slug,
			Name:        item.name,
			Description: item.desc,
			Price:       price,
			Stock:       item.stock,
			Active:      true,
		}
		if category, ok := categories[item.category]; ok {
			product.CategoryID = &category.ID
		}
		if err := repo.Create(ctx, &product); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
