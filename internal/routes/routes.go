package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	handler "tskpay-backend/internal/handlers"
	"tskpay-backend/internal/services/billing"
	"tskpay-backend/internal/services/cascade"
	"tskpay-backend/internal/services/reconciliation"
	"tskpay-backend/internal/services/recurring"
	"tskpay-backend/internal/services/reports"
	"tskpay-backend/internal/storage"
)

func RegisterRoutes(r *gin.Engine, store storage.Store, log *slog.Logger) {
	cascadeMgr := cascade.NewManager(store, log)
	reconService := reconciliation.NewService(store, cascadeMgr, log)
	billingService := billing.NewService(store, log)
	scheduler := recurring.NewScheduler(store, log)
	reportService := reports.NewService(store)

	statementHandler := handler.NewStatementHandler(reconService, store)
	transactionHandler := handler.NewTransactionHandler(reconService, store)
	paymentHandler := handler.NewPaymentHandler(reconService, cascadeMgr, store)
	costHandler := handler.NewCostHandler(billingService, scheduler, store)
	rosterHandler := handler.NewRosterHandler(store)
	reportHandler := handler.NewReportHandler(reportService, store)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	statements := api.Group("/statements")
	statements.POST("/upload", statementHandler.Upload)
	statements.GET("", statementHandler.List)
	statements.GET("/:id", statementHandler.Get)
	statements.DELETE("/:id", statementHandler.Delete)

	tx := api.Group("/transactions")
	tx.GET("", transactionHandler.List)
	tx.PUT("/:id/match", transactionHandler.SetMatch)
	tx.POST("/:id/confirm", transactionHandler.Confirm)

	payments := api.Group("/payments")
	payments.GET("", paymentHandler.List)
	payments.POST("", paymentHandler.Create)
	payments.GET("/:id/costs", paymentHandler.CandidateCosts)
	payments.GET("/:id/auto-select", paymentHandler.AutoSelect)
	payments.POST("/:id/allocate", paymentHandler.Allocate)
	payments.POST("/:id/cancel", paymentHandler.CancelAllocation)
	payments.PUT("/:id/amount", paymentHandler.UpdateAmount)
	payments.DELETE("/:id", paymentHandler.Delete)

	costs := api.Group("/costs")
	costs.GET("", costHandler.List)
	costs.POST("", costHandler.Create)
	costs.PUT("/:id", costHandler.Update)
	costs.POST("/:id/cancel", costHandler.Cancel)
	costs.DELETE("/:id", costHandler.Delete)
	costs.POST("/bulk", costHandler.BulkBilling)
	costs.POST("/generate-recurring", costHandler.GenerateRecurring)

	costTypes := api.Group("/cost-types")
	costTypes.GET("", costHandler.ListTypes)
	costTypes.POST("", costHandler.CreateType)
	costTypes.DELETE("/:id", costHandler.DeleteType)

	members := api.Group("/members")
	members.GET("", rosterHandler.ListMembers)
	members.POST("", rosterHandler.CreateMember)
	members.PUT("/:id", rosterHandler.UpdateMember)
	members.DELETE("/:id", rosterHandler.DeleteMember)

	parents := api.Group("/parents")
	parents.GET("", rosterHandler.ListParents)
	parents.POST("", rosterHandler.CreateParent)
	parents.PUT("/:id", rosterHandler.UpdateParent)
	parents.DELETE("/:id", rosterHandler.DeleteParent)

	groups := api.Group("/groups")
	groups.GET("", rosterHandler.ListGroups)
	groups.POST("", rosterHandler.CreateGroup)
	groups.PUT("/:id", rosterHandler.UpdateGroup)
	groups.DELETE("/:id", rosterHandler.DeleteGroup)

	coaches := api.Group("/coaches")
	coaches.GET("", rosterHandler.ListCoaches)
	coaches.POST("", rosterHandler.CreateCoach)
	coaches.PUT("/:id", rosterHandler.UpdateCoach)
	coaches.DELETE("/:id", rosterHandler.DeleteCoach)

	reportsGroup := api.Group("/reports")
	reportsGroup.GET("/dashboard", reportHandler.Dashboard)
	reportsGroup.GET("/members", reportHandler.MemberObligations)
	reportsGroup.GET("/groups", reportHandler.GroupObligations)
	reportsGroup.GET("/financial", reportHandler.Financial)
	reportsGroup.GET("/overdue-export", reportHandler.OverdueExport)
	reportsGroup.GET("/audit-log", reportHandler.AuditLog)
}
