package http

import (
	"context"
	"log"

	"crossbank/internal/config"
	"crossbank/internal/domain"
	"crossbank/internal/infra/authority"
	"crossbank/internal/infra/db"
	"crossbank/internal/infra/keys"
	"crossbank/internal/infra/ledgermem"
	"crossbank/internal/infra/policyopa"
	"crossbank/internal/infra/session"
	"crossbank/internal/usecase"

	"github.com/gin-gonic/gin"
)

// Server hosts both deployment roles behind one route table. A bank node uses
// the /pay and /api/transactions surfaces; the clearing authority uses
// /api/receiveTransactions and /api/directPayments. Which surfaces are live
// follows from the configured keys, not from a mode switch.
type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine

	registry *keys.Registry
	identity domain.SignerIdentity

	receiveTx        *usecase.ReceiveTransaction
	receiveCredit    *usecase.ReceiveCredit
	directPayment    *usecase.DirectPayment
	paymentFlow      *usecase.PaymentFlow
	internalTransfer *usecase.InternalTransfer
	globalTransfer   *usecase.GlobalTransferCoordinator

	initErr error
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r}
	s.initDeps()
	s.routes()
	return s
}

// ServerDeps lets tests and embedders supply pre-built collaborators instead
// of the config-driven wiring.
type ServerDeps struct {
	Registry         *keys.Registry
	Identity         domain.SignerIdentity
	ReceiveTx        *usecase.ReceiveTransaction
	ReceiveCredit    *usecase.ReceiveCredit
	DirectPayment    *usecase.DirectPayment
	PaymentFlow      *usecase.PaymentFlow
	InternalTransfer *usecase.InternalTransfer
	GlobalTransfer   *usecase.GlobalTransferCoordinator
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:              cfg,
		r:                r,
		registry:         deps.Registry,
		identity:         deps.Identity,
		receiveTx:        deps.ReceiveTx,
		receiveCredit:    deps.ReceiveCredit,
		directPayment:    deps.DirectPayment,
		paymentFlow:      deps.PaymentFlow,
		internalTransfer: deps.InternalTransfer,
		globalTransfer:   deps.GlobalTransfer,
	}
	s.routes()
	return s
}

func (s *Server) initDeps() {
	var bankRepo *db.BankRepository
	var accounts usecase.AccountSource
	var ledger usecase.Ledger
	if s.store != nil && s.store.DB != nil {
		bankRepo = db.NewBankRepository(s.store.DB)
		accounts = db.NewAccountRepository(s.store.DB)
		ledger = db.NewTransferRepository(s.store.DB)
	} else {
		mem := ledgermem.New()
		accounts = mem
		ledger = mem
	}

	var banks keys.BankSource
	if bankRepo != nil {
		banks = bankRepo
	}
	registry, err := keys.NewFromConfig(s.cfg, banks)
	if err != nil {
		s.initErr = err
		return
	}
	s.registry = registry
	s.identity = domain.SignerIdentity{Name: s.cfg.BankName, Code: s.cfg.BankCode}

	client := authority.NewClient(s.identity, registry.LocalKey())

	var sessions usecase.SessionStore
	if s.cfg.RedisAddr != "" {
		redisStore, err := session.NewRedisStore(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, s.cfg.SessionTTL())
		if err != nil {
			s.initErr = err
			return
		}
		sessions = redisStore
	} else {
		sessions = session.NewMemoryStore(s.cfg.SessionTTL(), nil)
	}

	var policy usecase.PolicyEngine
	if s.cfg.PolicyBundlePath != "" {
		engine, err := policyopa.NewEngineFromBundlePath(context.Background(), s.cfg.PolicyBundlePath)
		if err != nil {
			s.initErr = err
			return
		}
		policy = engine
		log.Printf("transfer acceptance policy loaded from %s", s.cfg.PolicyBundlePath)
	}

	s.globalTransfer = &usecase.GlobalTransferCoordinator{
		Accounts: accounts,
		Ledger:   ledger,
		Remote: &authority.OrderSender{
			Client:      client,
			BaseURL:     s.cfg.AuthorityEndpoint,
			ReceiverPub: registry.AuthorityKey(),
		},
	}
	s.paymentFlow = &usecase.PaymentFlow{
		AuthorityPub: registry.AuthorityKey(),
		BankKey:      registry.LocalKey(),
		Sessions:     sessions,
		Transfer:     s.globalTransfer,
	}
	s.directPayment = &usecase.DirectPayment{
		SitePub:        registry.SiteKey(),
		AuthorityKey:   registry.LocalKey(),
		PayURLTemplate: s.cfg.BankPayURLTemplate,
	}
	if bankRepo != nil {
		s.receiveTx = &usecase.ReceiveTransaction{Banks: bankRepo, Policy: policy, Forward: client}
	}
	s.receiveCredit = &usecase.ReceiveCredit{Accounts: accounts, Ledger: ledger}
	s.internalTransfer = &usecase.InternalTransfer{Accounts: accounts, Ledger: ledger}
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		dbMode := "no-db"
		if s.store != nil && s.store.DB != nil {
			dbMode = "db"
		}
		c.JSON(200, gin.H{"status": "ok", "mode": dbMode})
	})

	api := s.r.Group("/api")
	{
		api.POST("/receiveTransactions", s.handleReceiveTransactions)
		api.POST("/transactions", s.handleReceiveCredit)
		api.POST("/directPayments", s.handleDirectPayment)
		api.POST("/transfers/internal", s.handleInternalTransfer)
		api.POST("/transfers/global", s.handleGlobalTransfer)
	}

	s.r.GET("/pay/:data", s.handlePaymentBegin)
	s.r.GET("/pay", s.handlePaymentShow)
	s.r.POST("/pay", s.handlePaymentCommit)

	s.r.NoRoute(s.handleNoRoute)
}

func (s *Server) Run() error {
	if s.initErr != nil {
		return s.initErr
	}
	return s.r.Run(s.cfg.HTTPAddr)
}
