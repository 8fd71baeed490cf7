// Command geyserd runs a single continuous-vesting geyser as an HTTP
// service: it wires the engine in internal/geyser to Postgres-backed
// persistence, a Redis read-cache, Prometheus metrics and an
// in-memory reference asset ledger, then serves stake/unstake/
// lock_tokens/view operations over a gin router: load config, connect
// database, run migrations, build the router, then wait for a
// shutdown signal.
package main

import (
	"context"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ham-Protocol/ham-geyser/internal/assetledger"
	"github.com/Ham-Protocol/ham-geyser/internal/cache"
	"github.com/Ham-Protocol/ham-geyser/internal/config"
	"github.com/Ham-Protocol/ham-geyser/internal/events"
	"github.com/Ham-Protocol/ham-geyser/internal/geyser"
	"github.com/Ham-Protocol/ham-geyser/internal/geyserstore"
	"github.com/Ham-Protocol/ham-geyser/internal/metrics"
	"github.com/Ham-Protocol/ham-geyser/internal/ownership"
)

func main() {
	log.Println("starting geyser service...")

	cfg, err := config.LoadGeyserConfigFromFile(os.Getenv("GEYSER_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := geyserstore.Migrate(cfg.DatabaseURL, "internal/geyserstore/migrations"); err != nil {
		log.Printf("warning: migration error: %v", err)
	}

	store, err := geyserstore.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	redisCache, err := cache.NewRedisCache(&cache.CacheConfig{
		TotalStakedTTL:    5 * time.Second,
		TotalStakedForTTL: 5 * time.Second,
		TotalLockedTTL:    5 * time.Second,
		TotalUnlockedTTL:  5 * time.Second,
		RedisAddr:         cfg.RedisAddr,
		RedisDB:           cfg.RedisDB,
		KeyPrefix:         "geyser:",
	})
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisCache.Close()

	registry := prometheus.NewRegistry()
	geyserMetrics := metrics.New(cfg.MetricsNamespace, registry)

	srv, err := newServer(cfg, store, redisCache, geyserMetrics)
	if err != nil {
		log.Fatalf("failed to build geyser server: %v", err)
	}

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "geyserd"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	apiGroup := router.Group("/api/v1")
	{
		apiGroup.POST("/stake", srv.handleStake())
		apiGroup.POST("/stake-for", srv.handleStakeFor())
		apiGroup.POST("/unstake", srv.handleUnstake())
		apiGroup.POST("/unstake/query", srv.handleUnstakeQuery())
		apiGroup.POST("/lock-tokens", srv.handleLockTokens())
		apiGroup.GET("/accounting", srv.handleAccounting())

		apiGroup.GET("/views/total-staked", srv.handleTotalStaked())
		apiGroup.GET("/views/total-staked-for", srv.handleTotalStakedFor())
		apiGroup.GET("/views/total-locked", srv.handleTotalLocked())
		apiGroup.GET("/views/total-unlocked", srv.handleTotalUnlocked())

		apiGroup.POST("/ownership/propose", srv.handleProposeOwnership())
		apiGroup.POST("/ownership/accept", srv.handleAcceptOwnership())
		apiGroup.POST("/ownership/capability-token", srv.handleIssueCapabilityToken())

		apiGroup.POST("/admin/mint", srv.handleAdminMint())
		apiGroup.POST("/admin/rebase", srv.handleAdminRebase())
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("geyser service listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down geyser service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.persist(ctx); err != nil {
		log.Printf("warning: failed to persist final snapshot: %v", err)
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("geyser service exited gracefully")
}

// server holds every collaborator an HTTP handler needs to drive the
// engine and keep its ambient stack (persistence, cache, metrics) in
// sync after each mutating call.
type server struct {
	cfg    config.GeyserConfig
	engine *geyser.Engine
	store  *geyserstore.Store
	views  *cache.CachedViewService
	metric *metrics.GeyserMetrics

	stakingLedger *assetledger.Ledger
	distLedger    *assetledger.Ledger
	ownerReg      *ownership.Registry
	sink          *events.Sink
}

func newServer(cfg config.GeyserConfig, store *geyserstore.Store, redisCache *cache.RedisCache, m *metrics.GeyserMetrics) (*server, error) {
	stakingLedger := assetledger.New()
	distLedger := assetledger.New()

	stakingPool := geyser.Address(cfg.StakingPoolAddress)
	distPool := geyser.Address(cfg.DistributionPoolAddress)
	owner := geyser.Address(cfg.OwnerAddress)

	sink := events.NewSink(nil)
	ownerReg := ownership.New(owner, sink)

	engineCfg := geyser.Config{
		InitialSharesPerToken: cfg.InitialSharesPerToken,
		StartBonusPermille:    cfg.StartBonusPermille,
		BonusPeriodSeconds:    cfg.BonusPeriodSeconds,
		MaxUnlockSchedules:    cfg.MaxUnlockSchedules,
	}

	now := time.Now().Unix()

	state, found, err := store.LoadSnapshot(context.Background())
	if err != nil {
		return nil, err
	}

	var engine *geyser.Engine
	if found {
		engine, err = geyser.RestoreEngine(
			engineCfg,
			assetledger.NewPoolView(stakingLedger, stakingPool),
			assetledger.NewPoolView(distLedger, distPool),
			stakingPool, distPool,
			ownerReg, sink, state,
		)
	} else {
		engine, err = geyser.NewEngine(
			engineCfg,
			assetledger.NewPoolView(stakingLedger, stakingPool),
			assetledger.NewPoolView(distLedger, distPool),
			stakingPool, distPool,
			ownerReg, sink, now,
		)
	}
	if err != nil {
		return nil, err
	}

	srv := &server{
		cfg:           cfg,
		engine:        engine,
		store:         store,
		metric:        m,
		stakingLedger: stakingLedger,
		distLedger:    distLedger,
		ownerReg:      ownerReg,
		sink:          sink,
	}

	srv.views = cache.NewCachedViewService(redisCache, srv.fetchTotalStaked, srv.fetchTotalLocked, srv.fetchTotalUnlocked, srv.fetchTotalStakedFor)
	return srv, nil
}

func viewAmount(amount *big.Int) *cache.ViewAmount {
	return &cache.ViewAmount{
		Amount:   amount.String(),
		AsOf:     time.Now().Unix(),
		CachedAt: time.Now(),
	}
}

func (s *server) fetchTotalStaked(ctx context.Context) (*cache.ViewAmount, error) {
	return viewAmount(s.engine.TotalStaked()), nil
}

func (s *server) fetchTotalStakedFor(ctx context.Context, user string) (*cache.ViewAmount, error) {
	return viewAmount(s.engine.TotalStakedFor(geyser.Address(user))), nil
}

func (s *server) fetchTotalLocked(ctx context.Context) (*cache.ViewAmount, error) {
	return viewAmount(s.engine.TotalLocked()), nil
}

func (s *server) fetchTotalUnlocked(ctx context.Context) (*cache.ViewAmount, error) {
	return viewAmount(s.engine.TotalUnlocked()), nil
}

// persist writes the engine's current accounting state to Postgres
// and invalidates the read cache so the next view read reflects it.
func (s *server) persist(ctx context.Context) error {
	if err := s.store.SaveSnapshot(ctx, s.engine.Snapshot()); err != nil {
		return err
	}
	return s.views.InvalidateCache(ctx)
}

func (s *server) persistAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.persist(ctx); err != nil {
			log.Printf("warning: failed to persist snapshot after mutation: %v", err)
		}
	}()
}

func parseBigInt(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}

type stakeRequest struct {
	Caller      string `json:"caller" binding:"required"`
	Beneficiary string `json:"beneficiary"`
	Amount      string `json:"amount" binding:"required"`
	Data        string `json:"data"`
}

func (s *server) handleStake() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req stakeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amount, ok := parseBigInt(req.Amount)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		now := time.Now().Unix()
		err := s.engine.Stake(now, geyser.Address(req.Caller), amount, []byte(req.Data))
		if err != nil {
			s.metric.RecordStake("error", 0)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.metric.RecordStake("ok", tokenFloat(amount))
		s.persistAsync()
		c.JSON(http.StatusOK, gin.H{"total_staked": s.engine.TotalStakedFor(geyser.Address(req.Caller)).String()})
	}
}

func (s *server) handleStakeFor() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req stakeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amount, ok := parseBigInt(req.Amount)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		now := time.Now().Unix()
		err := s.engine.StakeFor(now, geyser.Address(req.Caller), geyser.Address(req.Beneficiary), amount, []byte(req.Data))
		if err != nil {
			s.metric.RecordStake("error", 0)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.metric.RecordStake("ok", tokenFloat(amount))
		s.persistAsync()
		c.JSON(http.StatusOK, gin.H{"total_staked": s.engine.TotalStakedFor(geyser.Address(req.Beneficiary)).String()})
	}
}

type unstakeRequest struct {
	Caller string `json:"caller" binding:"required"`
	Amount string `json:"amount" binding:"required"`
	Data   string `json:"data"`
}

func (s *server) handleUnstake() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req unstakeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amount, ok := parseBigInt(req.Amount)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		now := time.Now().Unix()
		result, err := s.engine.Unstake(now, geyser.Address(req.Caller), amount, []byte(req.Data))
		if err != nil {
			s.metric.RecordUnstake("error", req.Caller, 0, 0, 0)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		forfeitedShares, _ := new(big.Float).SetInt(result.ForfeitedRewardShares).Float64()
		s.metric.RecordUnstake("ok", req.Caller, tokenFloat(result.RewardAmount), forfeitedShares, result.BonusFactor)
		s.persistAsync()
		c.JSON(http.StatusOK, gin.H{
			"reward":           result.RewardAmount.String(),
			"bonus_factor":     result.BonusFactor,
			"remaining_staked": s.engine.TotalStakedFor(geyser.Address(req.Caller)).String(),
		})
	}
}

func (s *server) handleUnstakeQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req unstakeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amount, ok := parseBigInt(req.Amount)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		reward, err := s.engine.UnstakeQuery(time.Now().Unix(), geyser.Address(req.Caller), amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reward": reward.String()})
	}
}

type lockTokensRequest struct {
	Caller          string `json:"caller" binding:"required"`
	Amount          string `json:"amount" binding:"required"`
	DurationSeconds int64  `json:"duration_seconds" binding:"required"`
}

func (s *server) handleLockTokens() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lockTokensRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amount, ok := parseBigInt(req.Amount)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		err := s.engine.LockTokens(time.Now().Unix(), geyser.Address(req.Caller), amount, req.DurationSeconds)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.metric.RecordLockTokens()
		s.persistAsync()
		c.JSON(http.StatusOK, gin.H{"total_locked": s.engine.TotalLocked().String()})
	}
}

func (s *server) handleAccounting() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.Query("caller")
		snap := s.engine.UpdateAccounting(time.Now().Unix(), geyser.Address(caller))
		s.metric.SetGauges(
			tokenFloat(s.engine.TotalStaked()),
			tokenFloat(s.engine.TotalLocked()),
			tokenFloat(s.engine.TotalUnlocked()),
			float64(s.engine.UnlockScheduleCount()),
		)
		c.JSON(http.StatusOK, gin.H{
			"total_locked":        snap.TotalLocked.String(),
			"total_unlocked":      snap.TotalUnlocked.String(),
			"user_share_seconds":  snap.UserShareSeconds.String(),
			"total_share_seconds": snap.TotalShareSeconds.String(),
			"reward_entitlement":  snap.RewardEntitlement.String(),
			"now":                 snap.Now,
		})
	}
}

func (s *server) handleTotalStaked() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := s.views.GetTotalStaked(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func (s *server) handleTotalStakedFor() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.Query("user")
		if user == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user query parameter is required"})
			return
		}
		v, err := s.views.GetTotalStakedFor(c.Request.Context(), user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func (s *server) handleTotalLocked() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := s.views.GetTotalLocked(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func (s *server) handleTotalUnlocked() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := s.views.GetTotalUnlocked(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

type ownershipRequest struct {
	Caller   string `json:"caller" binding:"required"`
	NewOwner string `json:"new_owner"`
}

func (s *server) handleProposeOwnership() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ownershipRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.ownerReg.ProposeTransfer(geyser.Address(req.Caller), geyser.Address(req.NewOwner)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"pending_owner": string(s.ownerReg.PendingOwner())})
	}
}

func (s *server) handleAcceptOwnership() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ownershipRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.ownerReg.AcceptTransfer(geyser.Address(req.Caller)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"owner": string(s.ownerReg.Owner())})
	}
}

type capabilityTokenRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// handleIssueCapabilityToken mints a capability token for the current
// owner, the credential required by the admin/mint and admin/rebase
// endpoints. Only the address currently holding ownership can mint one
// for itself.
func (s *server) handleIssueCapabilityToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req capabilityTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if geyser.Address(req.Caller) != s.ownerReg.Owner() {
			c.JSON(http.StatusForbidden, gin.H{"error": ownership.ErrNotOwner.Error()})
			return
		}
		token, err := s.ownerReg.IssueCapabilityToken([]byte(s.cfg.CapabilitySecret), time.Hour)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// requireOwnerCapability extracts a "Bearer <token>" capability token
// from the Authorization header and verifies it against the owner
// registry's current owner. It writes the error response itself and
// returns ok=false when the caller should not proceed.
func (s *server) requireOwnerCapability(c *gin.Context) bool {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer capability token"})
		return false
	}
	if _, err := s.ownerReg.VerifyCapabilityToken(token, []byte(s.cfg.CapabilitySecret)); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// handleAdminMint funds the in-memory reference ledger so the geyser
// is runnable without a real token contract backing it, matching
// internal/assetledger's stated purpose. Requires a capability token
// proving the caller is the current owner.
type mintRequest struct {
	Asset  string `json:"asset" binding:"required"` // "staking" or "distribution"
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

func (s *server) handleAdminMint() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.requireOwnerCapability(c) {
			return
		}
		var req mintRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amount, ok := parseBigInt(req.Amount)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		ledger, err := s.ledgerByName(req.Asset)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ledger.Mint(geyser.Address(req.To), amount)
		c.JSON(http.StatusOK, gin.H{"balance": ledger.BalanceOf(geyser.Address(req.To)).String()})
	}
}

type rebaseRequest struct {
	Asset       string `json:"asset" binding:"required"`
	SupplyDelta string `json:"supply_delta" binding:"required"`
}

func (s *server) handleAdminRebase() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.requireOwnerCapability(c) {
			return
		}
		var req rebaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		delta, ok := parseBigInt(req.SupplyDelta)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supply_delta"})
			return
		}
		ledger, err := s.ledgerByName(req.Asset)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := ledger.Rebase(delta); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"total_supply": ledger.TotalSupply().String()})
	}
}

func (s *server) ledgerByName(name string) (*assetledger.Ledger, error) {
	switch name {
	case "staking":
		return s.stakingLedger, nil
	case "distribution":
		return s.distLedger, nil
	default:
		return nil, errUnknownAsset
	}
}

var errUnknownAsset = &assetError{"geyserd: asset must be \"staking\" or \"distribution\""}

type assetError struct{ msg string }

func (e *assetError) Error() string { return e.msg }

func tokenFloat(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}
