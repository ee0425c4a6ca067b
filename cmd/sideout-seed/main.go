package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/spf13/cobra"

	"sideout/internal/database"
	"sideout/internal/feed"
	"sideout/internal/league"
	"sideout/internal/scorebook"
	"sideout/internal/userauth"
	"sideout/internal/util/slogx"
	"sideout/internal/version"
)

var seedCmd = &cobra.Command{
	Use:     "sideout-seed",
	Args:    cobra.ExactArgs(0),
	Version: version.Version,
	Short:   "Fill a Sideout database with demo data",
	Long: `Creates an admin user, a demo tournament with teams and players, and a
handful of matches in various states. Intended for local development only.
`,
}

var teamSeeds = []league.TeamParams{
	{Name: "Harborside Breakers", ShortName: "HAR", Country: "Netherlands", HomeVenue: "Harborside Arena", FoundedYear: 1987},
	{Name: "Granite Peak VC", ShortName: "GRA", Country: "Switzerland", HomeVenue: "Peak Sports Hall", FoundedYear: 1992},
	{Name: "Red Lantern Volley", ShortName: "RLV", Country: "Poland", HomeVenue: "Lantern Dome", FoundedYear: 1975},
	{Name: "Southport Spikers", ShortName: "SOU", Country: "Italy", HomeVenue: "Southport Palazzetto", FoundedYear: 2001},
	{Name: "Northfield Aces", ShortName: "NOR", Country: "Germany", HomeVenue: "Northfield Halle", FoundedYear: 1998},
	{Name: "Bayview Thunder", ShortName: "BAY", Country: "France", HomeVenue: "Bayview Gymnase", FoundedYear: 1983},
}

var positions = []string{"setter", "outside hitter", "opposite", "middle blocker", "libero", "outside hitter"}

func playerName() (string, string) {
	parts := strings.SplitN(petname.Generate(2, " "), " ", 2)
	c := func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	}
	return c(parts[0]), c(parts[1])
}

// playSet drives one set of a live match to the given final score.
func playSet(ctx context.Context, book *scorebook.Keeper, matchID string, home, away int) error {
	if _, err := book.StartNextSet(ctx, matchID); err != nil {
		return fmt.Errorf("start set: %w", err)
	}
	h, a := 0, 0
	for h < home || a < away {
		// Interleave rallies so the event timeline looks plausible.
		if h < home && (a >= away || rand.IntN(2) == 0) {
			h++
		} else {
			a++
		}
		if _, err := book.UpdatePoints(ctx, matchID, h, a); err != nil {
			return fmt.Errorf("update points: %w", err)
		}
	}
	if _, err := book.FinishSet(ctx, matchID); err != nil {
		return fmt.Errorf("finish set: %w", err)
	}
	return nil
}

func seed(ctx context.Context, log *slog.Logger, db *database.DB, adminPassword string) error {
	users := userauth.NewManager(log, db, userauth.ManagerOptions{})
	// The first registered account becomes an admin, so seeding into a
	// fresh database yields a usable admin login right away.
	if _, err := users.Register(ctx, "admin", adminPassword, "Site Admin"); err != nil {
		return fmt.Errorf("register admin: %w", err)
	}

	lm := league.NewManager(db)
	start := time.Now().AddDate(0, -1, 0)
	end := time.Now().AddDate(0, 2, 0)
	tournament, err := lm.CreateTournament(ctx, league.TournamentParams{
		Name:      "Coastal Volleyball League",
		ShortName: "CVL",
		Season:    fmt.Sprintf("%d", time.Now().Year()),
		StartDate: &start,
		EndDate:   &end,
		IsActive:  true,
	})
	if err != nil {
		return fmt.Errorf("create tournament: %w", err)
	}

	var teams []league.Team
	for _, p := range teamSeeds {
		team, err := lm.CreateTeam(ctx, p)
		if err != nil {
			return fmt.Errorf("create team %v: %w", p.Name, err)
		}
		teams = append(teams, team)
		for i, pos := range positions {
			first, last := playerName()
			if _, err := lm.CreatePlayer(ctx, league.PlayerParams{
				TeamID:       team.ID,
				FirstName:    first,
				LastName:     last,
				JerseyNumber: i + 1,
				Position:     pos,
				Nationality:  p.Country,
			}); err != nil {
				return fmt.Errorf("create player: %w", err)
			}
		}
	}

	f := feed.New()
	defer f.Close()
	book, err := scorebook.NewKeeper(log, db, f, scorebook.Options{})
	if err != nil {
		return fmt.Errorf("create scorebook keeper: %w", err)
	}

	newMatch := func(home, away league.Team, at time.Time, round string) (string, error) {
		venue := home.Name
		if home.HomeVenue != nil {
			venue = *home.HomeVenue
		}
		m, err := book.CreateMatch(ctx, scorebook.MatchParams{
			TournamentID: tournament.ID,
			HomeTeamID:   home.ID,
			AwayTeamID:   away.ID,
			ScheduledAt:  at,
			Venue:        venue,
			Round:        round,
		})
		if err != nil {
			return "", fmt.Errorf("create match: %w", err)
		}
		return m.ID, nil
	}

	// A finished match with a full three-set scoreline.
	finishedID, err := newMatch(teams[0], teams[1], time.Now().AddDate(0, 0, -3), "Round 1")
	if err != nil {
		return err
	}
	for _, score := range [][2]int{{25, 21}, {23, 25}, {25, 19}, {25, 22}} {
		if err := playSet(ctx, book, finishedID, score[0], score[1]); err != nil {
			return err
		}
	}

	// A live match stuck mid-set, for watching updates flow.
	liveID, err := newMatch(teams[2], teams[3], time.Now().Add(-40*time.Minute), "Round 1")
	if err != nil {
		return err
	}
	if err := playSet(ctx, book, liveID, 25, 18); err != nil {
		return err
	}
	if _, err := book.StartNextSet(ctx, liveID); err != nil {
		return fmt.Errorf("start set: %w", err)
	}
	if _, err := book.UpdatePoints(ctx, liveID, 12, 9); err != nil {
		return fmt.Errorf("update points: %w", err)
	}

	// Upcoming matches spread over the next days.
	for i := 0; i < 4; i++ {
		home, away := teams[(i+4)%len(teams)], teams[(i+1)%len(teams)]
		at := time.Now().AddDate(0, 0, i+1).Truncate(time.Hour)
		if _, err := newMatch(home, away, at, "Round 2"); err != nil {
			return err
		}
	}

	log.Info("seed complete",
		slog.Int("teams", len(teams)),
		slog.String("tournament", tournament.Name),
	)
	return nil
}

func main() {
	p := seedCmd.Flags()
	dbPath := p.String("db", "sideout.db", "path to the sqlite database")
	adminPassword := p.String("admin-password", "", "password for the created admin user")
	if err := seedCmd.MarkFlagRequired("admin-password"); err != nil {
		panic(err)
	}

	seedCmd.RunE = func(cmd *cobra.Command, _args []string) error {
		ctx := cmd.Context()
		log := slogx.Default(slog.LevelInfo)
		db, err := database.New(log, database.Options{Path: *dbPath})
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		return seed(ctx, log, db, *adminPassword)
	}

	if err := seedCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
