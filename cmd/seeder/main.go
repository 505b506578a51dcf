package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	email         TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	credential_hash TEXT NOT NULL,
	referral_code TEXT NOT NULL,
	balance       BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
	has_redeemed  BOOLEAN NOT NULL DEFAULT FALSE,
	redeemed_from TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS accounts_referral_code_key ON accounts (referral_code);

CREATE TABLE IF NOT EXISTS reward_config (
	singleton    BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	reward_coins BIGINT NOT NULL DEFAULT 50 CHECK (reward_coins >= 0),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func main() {
	_ = godotenv.Load()

	dbURL := os.Getenv("DB_SOURCE")
	if dbURL == "" {
		log.Fatal("DB_SOURCE environment variable is required")
	}

	rewardCoins := int64(50)
	if v := os.Getenv("REWARD_COINS"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 0 {
			log.Fatalf("REWARD_COINS must be a non-negative integer, got %q", v)
		}
		rewardCoins = parsed
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer conn.Close(ctx)

	log.Println("--- Seeding Database ---")

	if _, err := conn.Exec(ctx, schema); err != nil {
		log.Fatalf("Schema creation failed: %v", err)
	}
	log.Println("Schema ready.")

	// Upsert the singleton reward record.
	_, err = conn.Exec(ctx,
		`INSERT INTO reward_config (singleton, reward_coins) VALUES (TRUE, $1)
		 ON CONFLICT (singleton) DO UPDATE SET reward_coins = EXCLUDED.reward_coins, updated_at = now()`,
		rewardCoins,
	)
	if err != nil {
		log.Fatalf("Reward config upsert failed: %v", err)
	}

	log.Printf("Reward config set: %d coins per redemption.", rewardCoins)
}
