// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"

	"stockledger/internal/config"
	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/security"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/auth_repo"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/pkg/logger"
)

// seedOptions are read from the environment alongside config.Config.
type seedOptions struct {
	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"Admin123!"`
	DemoData      bool   `envconfig:"SEED_DEMO_DATA" default:"false"`
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	var opts seedOptions
	if err := envconfig.Process("", &opts); err != nil {
		log.Fatalw("invalid seed options", "error", err)
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool, cfg.TxStatementTimeout)
	users := auth.NewService(auth_repo.NewUserRepo(txManager), txManager, auth.NewPasswordHasher(cfg.BcryptCost))

	adminID, err := seedAdminUser(ctx, users, opts.AdminUsername, opts.AdminPassword, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if opts.DemoData {
		if err := seedDemoData(ctx, pool, txManager, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Infow("seeding completed successfully", "admin_id", adminID)
}

func seedAdminUser(ctx context.Context, users *auth.Service, username, password string, log *logger.Logger) (id.ID, error) {
	user, err := users.CreateUser(ctx, auth.CreateUserRequest{
		Username: username,
		Password: password,
		FullName: "System Admin",
		Role:     security.RoleAdmin,
	})
	if apperror.HasCode(err, apperror.CodeDuplicate) {
		existing, err := users.Authenticate(ctx, username, password)
		if err != nil {
			return id.ID{}, fmt.Errorf("admin %q exists with a different password: %w", username, err)
		}
		log.Infow("admin user already exists", "username", username, "user_id", existing.ID)
		return existing.ID, nil
	}
	if err != nil {
		return id.ID{}, err
	}

	log.Infow("admin user created", "username", user.Username, "user_id", user.ID)
	return user.ID, nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, txManager *postgres.TxManager, log *logger.Logger) error {
	var existing int64
	if err := pool.Pool.QueryRow(ctx, `SELECT count(*) FROM brands`).Scan(&existing); err != nil {
		return fmt.Errorf("count brands: %w", err)
	}
	if existing > 0 {
		log.Infow("catalog already seeded, skipping demo data", "brands", existing)
		return nil
	}

	brands := []catalog.Brand{
		{ID: id.New(), Name: "Philips", PiecesPerBox: 12},
		{ID: id.New(), Name: "Osram", PiecesPerBox: 10},
		{ID: id.New(), Name: "Broco", PiecesPerBox: 24},
	}

	type productSeed struct {
		name, brand, typ, typeNumber, color string
		stock, minStock                     int64
		buy, sell                           string
	}
	seeds := []productSeed{
		{"LED Bulb 9W", "Philips", "Bulb", "9W", "Cool Daylight", 120, 24, "18500", "24000"},
		{"LED Bulb 13W", "Philips", "Bulb", "13W", "Warm White", 60, 24, "23000", "29500"},
		{"Tube T8 18W", "Osram", "Tube", "T8-18", "White", 40, 10, "21000", "27000"},
		{"Spotlight MR16", "Osram", "Spot", "MR16", "Warm White", 8, 10, "16500", "22000"},
		{"Wall Socket", "Broco", "Socket", "G-1", "White", 96, 24, "9000", "12500"},
		{"Single Switch", "Broco", "Switch", "S-1", "Ivory", 30, 24, "8500", "11000"},
	}

	products := make([]catalog.Product, 0, len(seeds))
	for _, s := range seeds {
		p := catalog.NewProduct(s.name)
		p.Brand = s.brand
		p.Type = s.typ
		p.TypeNumber = s.typeNumber
		p.Color = s.color
		p.Stock = s.stock
		p.MinStock = s.minStock
		p.BuyPrice = types.MustMoney(s.buy)
		p.SellPrice = types.MustMoney(s.sell)
		if err := p.Validate(); err != nil {
			return fmt.Errorf("seed product %s: %w", s.name, err)
		}
		products = append(products, *p)
	}

	importer := catalog_repo.NewImporter(txManager)
	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		nb, err := importer.Brands(ctx, brands)
		if err != nil {
			return err
		}
		np, err := importer.Products(ctx, products)
		if err != nil {
			return err
		}
		log.Infow("demo catalog seeded", "brands", nb, "products", np)
		return nil
	})
}
