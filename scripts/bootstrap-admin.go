package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/carhire/carhire/internal/auth"
	"github.com/carhire/carhire/internal/model"
	"github.com/carhire/carhire/internal/repository"
)

type output struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Created   bool   `json:"created"`
	CarsAdded int    `json:"cars_added"`
}

var demoCars = []string{
	"Toyota Corolla",
	"Volkswagen Golf",
	"Tesla Model 3",
	"Ford Mustang",
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		username    = flag.String("username", "admin", "Admin username")
		password    = flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Admin password (defaults to $ADMIN_PASSWORD)")
		withDemo    = flag.Bool("demo-cars", false, "Add demo cars when the inventory is empty")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	user, created, err := ensureAdmin(ctx, repo, strings.TrimSpace(*username), *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	out := output{UserID: user.ID, Username: user.Username, Created: created}

	if *withDemo {
		n, err := seedDemoCars(ctx, repo)
		if err != nil {
			fmt.Fprintln(os.Stderr, "seed demo cars:", err)
			os.Exit(1)
		}
		out.CarsAdded = n
	}

	switch strings.ToLower(*format) {
	case "plain":
		verb := "promoted"
		if created {
			verb = "created"
		}
		fmt.Printf("admin %s %s (%s), %d demo cars added\n", out.Username, verb, out.UserID, out.CarsAdded)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

// ensureAdmin creates the admin account, or promotes an existing user.
// A non-empty password replaces the existing one.
func ensureAdmin(ctx context.Context, repo *repository.Repository, username, password string) (*model.User, bool, error) {
	if err := model.ValidateUsername(username); err != nil {
		return nil, false, err
	}

	existing, err := repo.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if err := repo.SetUserRole(ctx, existing.ID, model.RoleAdmin); err != nil {
			return nil, false, fmt.Errorf("promote user: %w", err)
		}
		if password != "" {
			if err := model.ValidatePassword(password); err != nil {
				return nil, false, err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return nil, false, fmt.Errorf("hash password: %w", err)
			}
			if err := repo.UpdateUserPasswordHash(ctx, existing.ID, hash); err != nil {
				return nil, false, fmt.Errorf("update password: %w", err)
			}
		}
		existing.Role = model.RoleAdmin
		return existing, false, nil

	case errors.Is(err, repository.ErrUserNotFound):
		if password == "" {
			return nil, false, errors.New("a password is required to create the admin (use -password or ADMIN_PASSWORD)")
		}
		if err := model.ValidatePassword(password); err != nil {
			return nil, false, err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, false, fmt.Errorf("hash password: %w", err)
		}
		user := &model.User{
			ID:           ulid.Make().String(),
			Username:     username,
			PasswordHash: hash,
			Role:         model.RoleAdmin,
			CreatedAt:    time.Now().UTC(),
		}
		if err := repo.CreateUser(ctx, user); err != nil {
			return nil, false, fmt.Errorf("create admin: %w", err)
		}
		return user, true, nil

	default:
		return nil, false, fmt.Errorf("look up user: %w", err)
	}
}

func seedDemoCars(ctx context.Context, repo *repository.Repository) (int, error) {
	cars, err := repo.ListCars(ctx)
	if err != nil {
		return 0, err
	}
	if len(cars) > 0 {
		return 0, nil
	}

	for i, name := range demoCars {
		now := time.Now().UTC()
		car := &model.Car{
			ID:        ulid.Make().String(),
			Name:      name,
			Status:    model.CarStatusAvailable,
			Image:     model.DefaultCarImage,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.CreateCar(ctx, car); err != nil {
			return i, err
		}
	}
	return len(demoCars), nil
}
