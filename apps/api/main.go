package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/apps/api/handler"
	"go-storefront/apps/api/model"
	"go-storefront/apps/api/service"
	"go-storefront/pkg/assets"
	"go-storefront/pkg/config"
	"go-storefront/pkg/database"
	"go-storefront/pkg/discovery"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/mail"
	"go-storefront/pkg/mq"
	"go-storefront/pkg/tracer"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/flow"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// initSentinel loads the flow rule for the sale-recording hot path.
func initSentinel() {
	if err := sentinel.InitDefault(); err != nil {
		log.Fatalf("Failed to init sentinel: %v", err)
	}

	_, err := flow.LoadRules([]*flow.Rule{
		{
			Resource:               handler.ResRecordSale,
			TokenCalculateStrategy: flow.Direct,
			ControlBehavior:        flow.Reject,
			Threshold:              50,
			StatIntervalInMs:       1000,
		},
	})
	if err != nil {
		log.Fatalf("Failed to load sentinel rules: %v", err)
	}
	log.Printf("Sentinel flow rule loaded: %s QPS limit = 50", handler.ResRecordSale)
}

func main() {
	c, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if c.Tracing.Endpoint != "" {
		tp, err := tracer.InitTracer(c.Service.Name, c.Tracing.Endpoint)
		if err != nil {
			log.Printf("Init tracer failed: %v", err)
		} else {
			defer func() { _ = tp.Shutdown(context.Background()) }()
		}
	}

	initSentinel()

	db, err := database.InitMySQL(c.Mysql)
	if err != nil {
		log.Fatalf("Failed to init mysql: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.ProductImage{},
		&model.ProductSale{},
		&model.EmailLog{},
	); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	rdb, err := database.InitRedis(c.Redis)
	if err != nil {
		// Dashboards still work uncached; don't refuse to boot.
		log.Printf("Redis unavailable, analytics cache disabled: %v", err)
		rdb = nil
	}

	tokens := jwt.NewManager(c.Jwt.Secret, c.Jwt.Issuer, c.Jwt.TTLHours)

	assetStore, err := assets.NewDiskStore(c.Assets.Dir, c.Assets.BaseURL)
	if err != nil {
		log.Fatalf("Failed to init asset store: %v", err)
	}

	// Mail pipeline: requests enqueue jobs, the worker drains them and logs
	// every outcome. With no broker configured mail is disabled outright;
	// nothing in the request path ever waits on delivery.
	var enqueuer service.Enqueuer
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if c.Rabbit.URL != "" {
		pub, err := mq.NewPublisher(c.Rabbit.URL, c.Rabbit.MailQueue)
		if err != nil {
			log.Printf("RabbitMQ unavailable, outbound mail disabled: %v", err)
		} else {
			defer pub.Close()
			enqueuer = &service.QueueEnqueuer{Publisher: pub}

			notifier := service.NewNotifier(db, mail.NewSMTPTransport(c.Smtp))
			go func() {
				err := mq.Consume(workerCtx, c.Rabbit.URL, c.Rabbit.MailQueue, notifier.HandleMessage)
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("mail consumer stopped: %v", err)
				}
			}()
		}
	}

	hierarchy := service.NewHierarchyService(db)
	h := &handler.Handler{
		Accounts:  service.NewAccountService(db, tokens, enqueuer),
		Hierarchy: hierarchy,
		Catalog:   service.NewCatalogService(db, hierarchy, assetStore, enqueuer),
		Analytics: service.NewAnalyticsService(db, rdb),
	}

	r := gin.Default()
	r.Use(otelgin.Middleware(c.Service.Name))
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.Static("/media", c.Assets.Dir)
	h.RegisterRoutes(r, tokens, db)

	if c.Consul.Address != "" {
		if err := discovery.RegisterService(c.Service.Name, c.Service.Port, c.Consul.Address); err != nil {
			log.Printf("Consul registration failed: %v", err)
		}
	}

	addr := fmt.Sprintf(":%d", c.Service.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Printf("%s listening on %s", c.Service.Name, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopWorker()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
