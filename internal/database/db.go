package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/wader/gormstore/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sideout/internal/favorites"
	"sideout/internal/league"
	"sideout/internal/scorebook"
	"sideout/internal/scoring"
	"sideout/internal/userauth"
	"sideout/internal/util/idgen"
	"sideout/internal/util/slogx"
	"sideout/internal/util/timeutil"
	"sideout/internal/webui"
)

type Options struct {
	Path          string        `toml:"path"`
	Debug         bool          `toml:"debug"`
	SlowThreshold time.Duration `toml:"slow-threshold"`
	BusyTimeout   time.Duration `toml:"busy-timeout"`
	UseWAL        bool          `toml:"use-wal"`
}

func (o *Options) FillDefaults() {
	if o.SlowThreshold == 0 {
		o.SlowThreshold = 200 * time.Millisecond
	}
	if o.BusyTimeout == 0 {
		o.BusyTimeout = 1 * time.Minute
	}
}

type DB struct {
	db  *gorm.DB
	log *slog.Logger
}

var (
	_ scorebook.DB              = (*DB)(nil)
	_ league.DB                 = (*DB)(nil)
	_ favorites.DB              = (*DB)(nil)
	_ userauth.DB               = (*DB)(nil)
	_ webui.SessionStoreFactory = (*DB)(nil)
)

func (d *DB) Close() {
	db, err := d.db.DB()
	if err != nil {
		d.log.Error("could not get underlying db", slogx.Err(err))
	}
	err = db.Close()
	if err != nil {
		d.log.Error("could not close db", slogx.Err(err))
	}
}

func buildPath(o Options) string {
	var params []string
	if o.UseWAL {
		params = append(params, "_journal_mode=WAL")
		params = append(params, "_synchronous=NORMAL")
	}
	params = append(params, fmt.Sprintf("_busy_timeout=%v", o.BusyTimeout.Milliseconds()))
	params = append(params, "_foreign_keys=1")
	paramStr := strings.Join(params, "&")
	if paramStr == "" {
		return o.Path
	}
	return o.Path + "?" + paramStr
}

func New(log *slog.Logger, o Options) (*DB, error) {
	o.FillDefaults()

	log.Info("opening db")
	db, err := gorm.Open(sqlite.Open(buildPath(o)), &gorm.Config{
		Logger: Logger(log, o),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	d := &DB{db: db, log: log}

	log.Info("migrating db")
	if err := db.AutoMigrate(models...); err != nil {
		d.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	log.Info("db opened")
	return d, nil
}

func (d *DB) CreateMatch(ctx context.Context, match scoring.Match) error {
	err := d.db.WithContext(ctx).Create(&match).Error
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

func (d *DB) GetMatch(ctx context.Context, matchID string) (scoring.Match, error) {
	var matches []scoring.Match
	err := d.db.WithContext(ctx).Where("id = ?", matchID).Limit(1).Find(&matches).Error
	if err != nil {
		return scoring.Match{}, fmt.Errorf("get match: %w", err)
	}
	if len(matches) == 0 {
		return scoring.Match{}, scorebook.ErrMatchNotFound
	}
	return matches[0], nil
}

func (d *DB) UpdateMatch(ctx context.Context, match scoring.Match) error {
	err := d.db.WithContext(ctx).Save(&match).Error
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	return nil
}

func (d *DB) DeleteMatch(ctx context.Context, matchID string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("match_id = ?", matchID).Delete(&scoring.Set{}).Error; err != nil {
			return fmt.Errorf("delete sets: %w", err)
		}
		if err := tx.Where("match_id = ?", matchID).Delete(&scorebook.MatchEvent{}).Error; err != nil {
			return fmt.Errorf("delete events: %w", err)
		}
		if err := tx.Where("match_id = ?", matchID).Delete(&FavoriteMatch{}).Error; err != nil {
			return fmt.Errorf("delete favorites: %w", err)
		}
		delTx := tx.Where("id = ?", matchID).Delete(&scoring.Match{})
		if delTx.Error != nil {
			return fmt.Errorf("delete match: %w", delTx.Error)
		}
		if delTx.RowsAffected == 0 {
			return scorebook.ErrMatchNotFound
		}
		return nil
	})
}

func (d *DB) ListSets(ctx context.Context, matchID string) ([]scoring.Set, error) {
	var sets []scoring.Set
	err := d.db.WithContext(ctx).
		Where("match_id = ?", matchID).Order("set_number").Find(&sets).Error
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	return sets, nil
}

func (d *DB) SaveScore(ctx context.Context, match scoring.Match, sets []scoring.Set, events []scorebook.MatchEvent) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&match).Error; err != nil {
			return fmt.Errorf("save match: %w", err)
		}
		for i := range sets {
			if err := tx.Save(&sets[i]).Error; err != nil {
				return fmt.Errorf("save set: %w", err)
			}
		}
		if len(events) != 0 {
			if err := tx.Create(&events).Error; err != nil {
				return fmt.Errorf("create events: %w", err)
			}
		}
		return nil
	})
}

func (d *DB) ListMatchEvents(ctx context.Context, matchID string) ([]scorebook.MatchEvent, error) {
	var events []scorebook.MatchEvent
	err := d.db.WithContext(ctx).
		Where("match_id = ?", matchID).Order("timestamp, created_at").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list match events: %w", err)
	}
	return events, nil
}

func (d *DB) GetMatchCard(ctx context.Context, matchID string) (scorebook.MatchCard, error) {
	match, err := d.GetMatch(ctx, matchID)
	if err != nil {
		return scorebook.MatchCard{}, err
	}
	cards, err := d.enrichMatches(ctx, []scoring.Match{match})
	if err != nil {
		return scorebook.MatchCard{}, err
	}
	return cards[0], nil
}

func (d *DB) ListMatchCards(ctx context.Context, filter scorebook.MatchFilter) ([]scorebook.MatchCard, error) {
	tx := d.db.WithContext(ctx).Model(&scoring.Match{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if filter.TournamentID != "" {
		tx = tx.Where("tournament_id = ?", filter.TournamentID)
	}
	if filter.TeamID != "" {
		tx = tx.Where("home_team_id = ? OR away_team_id = ?", filter.TeamID, filter.TeamID)
	}
	tx = tx.Order("scheduled_at")
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	var matches []scoring.Match
	if err := tx.Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return d.enrichMatches(ctx, matches)
}

// enrichMatches joins teams, tournaments and sets onto the given matches
// with one batched query per table. A dangling reference yields a nil
// pointer, never an error.
func (d *DB) enrichMatches(ctx context.Context, matches []scoring.Match) ([]scorebook.MatchCard, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	matchIDs := make([]string, 0, len(matches))
	teamIDSet := make(map[string]struct{})
	tournamentIDSet := make(map[string]struct{})
	for _, m := range matches {
		matchIDs = append(matchIDs, m.ID)
		for _, id := range []*string{m.HomeTeamID, m.AwayTeamID} {
			if id != nil {
				teamIDSet[*id] = struct{}{}
			}
		}
		if m.TournamentID != nil {
			tournamentIDSet[*m.TournamentID] = struct{}{}
		}
	}

	teams := make(map[string]*league.Team, len(teamIDSet))
	if len(teamIDSet) != 0 {
		var rows []league.Team
		err := d.db.WithContext(ctx).Where("id IN ?", keysOf(teamIDSet)).Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("load teams: %w", err)
		}
		for i := range rows {
			teams[rows[i].ID] = &rows[i]
		}
	}

	tournaments := make(map[string]*league.Tournament, len(tournamentIDSet))
	if len(tournamentIDSet) != 0 {
		var rows []league.Tournament
		err := d.db.WithContext(ctx).Where("id IN ?", keysOf(tournamentIDSet)).Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("load tournaments: %w", err)
		}
		for i := range rows {
			tournaments[rows[i].ID] = &rows[i]
		}
	}

	setsByMatch := make(map[string][]scoring.Set)
	{
		var rows []scoring.Set
		err := d.db.WithContext(ctx).
			Where("match_id IN ?", matchIDs).Order("set_number").Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("load sets: %w", err)
		}
		for _, s := range rows {
			if s.MatchID == nil {
				continue
			}
			setsByMatch[*s.MatchID] = append(setsByMatch[*s.MatchID], s)
		}
	}

	cards := make([]scorebook.MatchCard, len(matches))
	for i, m := range matches {
		card := scorebook.MatchCard{
			Match: m,
			Sets:  setsByMatch[m.ID],
		}
		if m.HomeTeamID != nil {
			card.HomeTeam = teams[*m.HomeTeamID]
		}
		if m.AwayTeamID != nil {
			card.AwayTeam = teams[*m.AwayTeamID]
		}
		if m.TournamentID != nil {
			card.Tournament = tournaments[*m.TournamentID]
		}
		cards[i] = card
	}
	return cards, nil
}

func keysOf(m map[string]struct{}) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	return res
}

func (d *DB) CreateTeam(ctx context.Context, team league.Team) error {
	err := d.db.WithContext(ctx).Create(&team).Error
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (d *DB) GetTeam(ctx context.Context, teamID string) (league.Team, error) {
	var teams []league.Team
	err := d.db.WithContext(ctx).Where("id = ?", teamID).Limit(1).Find(&teams).Error
	if err != nil {
		return league.Team{}, fmt.Errorf("get team: %w", err)
	}
	if len(teams) == 0 {
		return league.Team{}, league.ErrTeamNotFound
	}
	return teams[0], nil
}

func (d *DB) ListTeams(ctx context.Context, filter league.TeamFilter) ([]league.Team, error) {
	tx := d.db.WithContext(ctx).Model(&league.Team{})
	if filter.Query != "" {
		tx = tx.Where("name LIKE ?", "%"+filter.Query+"%")
	}
	if filter.Country != "" {
		tx = tx.Where("country = ?", filter.Country)
	}
	var teams []league.Team
	if err := tx.Order("name").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

func (d *DB) UpdateTeam(ctx context.Context, team league.Team) error {
	err := d.db.WithContext(ctx).Save(&team).Error
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	return nil
}

// DeleteTeam detaches the team's players and drops the team. Matches keep
// their dangling team reference and must render without it.
func (d *DB) DeleteTeam(ctx context.Context, teamID string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&league.Player{}).Where("team_id = ?", teamID).Update("team_id", nil).Error
		if err != nil {
			return fmt.Errorf("detach players: %w", err)
		}
		if err := tx.Where("team_id = ?", teamID).Delete(&FavoriteTeam{}).Error; err != nil {
			return fmt.Errorf("delete favorites: %w", err)
		}
		delTx := tx.Where("id = ?", teamID).Delete(&league.Team{})
		if delTx.Error != nil {
			return fmt.Errorf("delete team: %w", delTx.Error)
		}
		if delTx.RowsAffected == 0 {
			return league.ErrTeamNotFound
		}
		return nil
	})
}

func (d *DB) CreateTournament(ctx context.Context, t league.Tournament) error {
	err := d.db.WithContext(ctx).Create(&t).Error
	if err != nil {
		return fmt.Errorf("create tournament: %w", err)
	}
	return nil
}

func (d *DB) GetTournament(ctx context.Context, tournamentID string) (league.Tournament, error) {
	var ts []league.Tournament
	err := d.db.WithContext(ctx).Where("id = ?", tournamentID).Limit(1).Find(&ts).Error
	if err != nil {
		return league.Tournament{}, fmt.Errorf("get tournament: %w", err)
	}
	if len(ts) == 0 {
		return league.Tournament{}, league.ErrTournamentNotFound
	}
	return ts[0], nil
}

func (d *DB) ListTournaments(ctx context.Context, filter league.TournamentFilter) ([]league.Tournament, error) {
	tx := d.db.WithContext(ctx).Model(&league.Tournament{})
	if filter.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}
	if filter.Country != "" {
		tx = tx.Where("country = ?", filter.Country)
	}
	var ts []league.Tournament
	if err := tx.Order("name").Find(&ts).Error; err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return ts, nil
}

func (d *DB) UpdateTournament(ctx context.Context, t league.Tournament) error {
	err := d.db.WithContext(ctx).Save(&t).Error
	if err != nil {
		return fmt.Errorf("update tournament: %w", err)
	}
	return nil
}

func (d *DB) DeleteTournament(ctx context.Context, tournamentID string) error {
	delTx := d.db.WithContext(ctx).Where("id = ?", tournamentID).Delete(&league.Tournament{})
	if delTx.Error != nil {
		return fmt.Errorf("delete tournament: %w", delTx.Error)
	}
	if delTx.RowsAffected == 0 {
		return league.ErrTournamentNotFound
	}
	return nil
}

func (d *DB) CreatePlayer(ctx context.Context, p league.Player) error {
	err := d.db.WithContext(ctx).Create(&p).Error
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

func (d *DB) ListTeamPlayers(ctx context.Context, teamID string) ([]league.Player, error) {
	var players []league.Player
	err := d.db.WithContext(ctx).
		Where("team_id = ?", teamID).Order("jersey_number, last_name").Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("list team players: %w", err)
	}
	return players, nil
}

func (d *DB) DeletePlayer(ctx context.Context, playerID string) error {
	delTx := d.db.WithContext(ctx).Where("id = ?", playerID).Delete(&league.Player{})
	if delTx.Error != nil {
		return fmt.Errorf("delete player: %w", delTx.Error)
	}
	if delTx.RowsAffected == 0 {
		return league.ErrPlayerNotFound
	}
	return nil
}

func (d *DB) ListPlayerStats(ctx context.Context, playerID string) ([]league.PlayerStats, error) {
	var stats []league.PlayerStats
	err := d.db.WithContext(ctx).Where("player_id = ?", playerID).Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("list player stats: %w", err)
	}
	return stats, nil
}

func (d *DB) ListFavoriteTeams(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := d.db.WithContext(ctx).Model(&FavoriteTeam{}).
		Where("user_id = ?", userID).Pluck("team_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list favorite teams: %w", err)
	}
	return ids, nil
}

func (d *DB) ListFavoriteMatches(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := d.db.WithContext(ctx).Model(&FavoriteMatch{}).
		Where("user_id = ?", userID).Pluck("match_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list favorite matches: %w", err)
	}
	return ids, nil
}

// AddFavorite is idempotent: adding an already favorited entity succeeds
// without duplicating the row.
func (d *DB) AddFavorite(ctx context.Context, kind favorites.Kind, userID, entityID string) error {
	var row any
	switch kind {
	case favorites.KindTeam:
		row = &FavoriteTeam{
			ID:        idgen.ID(),
			UserID:    userID,
			TeamID:    entityID,
			CreatedAt: timeutil.NowUTC(),
		}
	case favorites.KindMatch:
		row = &FavoriteMatch{
			ID:        idgen.ID(),
			UserID:    userID,
			MatchID:   entityID,
			CreatedAt: timeutil.NowUTC(),
		}
	default:
		panic("bad kind")
	}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
	if err != nil {
		return fmt.Errorf("add %v favorite: %w", kind, err)
	}
	return nil
}

func (d *DB) RemoveFavorite(ctx context.Context, kind favorites.Kind, userID, entityID string) error {
	var err error
	switch kind {
	case favorites.KindTeam:
		err = d.db.WithContext(ctx).
			Where("user_id = ? AND team_id = ?", userID, entityID).Delete(&FavoriteTeam{}).Error
	case favorites.KindMatch:
		err = d.db.WithContext(ctx).
			Where("user_id = ? AND match_id = ?", userID, entityID).Delete(&FavoriteMatch{}).Error
	default:
		panic("bad kind")
	}
	if err != nil {
		return fmt.Errorf("remove %v favorite: %w", kind, err)
	}
	return nil
}

func (d *DB) CreateUser(ctx context.Context, user userauth.User) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var result []userauth.User
		err := tx.Where("username = ?", user.Username).Limit(1).Find(&result).Error
		if err != nil {
			return fmt.Errorf("search for user: %w", err)
		}
		if len(result) != 0 {
			return userauth.ErrUserAlreadyExists
		}
		err = tx.Create(&user).Error
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
}

func (d *DB) GetUser(ctx context.Context, userID string) (userauth.User, error) {
	var users []userauth.User
	err := d.db.WithContext(ctx).Where("id = ?", userID).Limit(1).Find(&users).Error
	if err != nil {
		return userauth.User{}, fmt.Errorf("get user: %w", err)
	}
	if len(users) == 0 {
		return userauth.User{}, userauth.ErrUserNotFound
	}
	return users[0], nil
}

func (d *DB) GetUserByUsername(ctx context.Context, username string) (userauth.User, error) {
	var users []userauth.User
	err := d.db.WithContext(ctx).Where("username = ?", username).Limit(1).Find(&users).Error
	if err != nil {
		return userauth.User{}, fmt.Errorf("get user: %w", err)
	}
	if len(users) == 0 {
		return userauth.User{}, userauth.ErrUserNotFound
	}
	return users[0], nil
}

func (d *DB) ListUsers(ctx context.Context) ([]userauth.User, error) {
	var users []userauth.User
	err := d.db.WithContext(ctx).Order("username").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	return users, nil
}

func (d *DB) UpdateUser(ctx context.Context, user userauth.User) error {
	err := d.db.WithContext(ctx).Save(&user).Error
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (d *DB) CountUsers(ctx context.Context) (int64, error) {
	var cnt int64
	err := d.db.WithContext(ctx).Model(&userauth.User{}).Count(&cnt).Error
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return cnt, nil
}

func (d *DB) NewSessionStore(ctx context.Context, opts webui.SessionOptions) sessions.Store {
	s := gormstore.New(d.db, opts.Key)
	go s.PeriodicCleanup(opts.CleanupInterval, ctx.Done())
	return s
}
