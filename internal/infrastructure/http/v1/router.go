// Package v1 wires the HTTP API.
package v1

import (
	"github.com/gin-gonic/gin"

	"estateops/internal/infrastructure/http/v1/handlers"
	"estateops/internal/infrastructure/http/v1/middleware"
	"estateops/pkg/logger"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Health      *handlers.HealthHandler
	Auth        *handlers.AuthHandler
	Locations   *handlers.LocationsHandler
	Ownership   *handlers.OwnershipHandler
	Plans       *handlers.PlansHandler
	Sales       *handlers.SalesHandler
	Commissions *handlers.CommissionsHandler
	Documents   *handlers.DocumentsHandler
	Parties     *handlers.PartiesHandler
	Payments    *handlers.PaymentsHandler
	Audit       *handlers.AuditHandler
}

// NewRouter builds the gin engine with the full middleware chain and
// route table. Everything except health and login/refresh requires a
// valid access token.
func NewRouter(h Handlers, validator middleware.JWTValidator, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.Trace(),
		middleware.Logger(log),
		middleware.ErrorHandler(),
	)

	router.GET("/health/live", h.Health.Live)
	router.GET("/health/ready", h.Health.Ready)

	api := router.Group("/api/v1")

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	authed := api.Group("")
	authed.Use(middleware.Auth(validator))

	authed.POST("/auth/logout", h.Auth.Logout)

	loc := authed.Group("/locations")
	{
		loc.POST("/projects", h.Locations.CreateProject)
		loc.GET("/projects", h.Locations.ListProjects)
		loc.POST("/nodes", h.Locations.CreateChild)
		loc.GET("/nodes/:id", h.Locations.GetNode)
		loc.DELETE("/nodes/:id", h.Locations.DeleteNode)
		loc.GET("/nodes/:id/children", h.Locations.Children)
		loc.GET("/nodes/:id/subtree", h.Locations.Subtree)
		loc.GET("/nodes/:id/breadcrumb", h.Locations.Breadcrumb)
		loc.POST("/nodes/:id/floors", h.Locations.AddFloors)
		loc.PUT("/nodes/:id/floors", h.Locations.AdjustFloors)
		loc.GET("/units/:id", h.Locations.GetUnitDetail)
		loc.PUT("/units/:id/status", h.Locations.UpdateUnitStatus)
	}

	props := authed.Group("/properties")
	{
		props.POST("/:projectId/owners/assign", h.Ownership.BulkAssign)
		props.DELETE("/owners/:nodeId/delete", h.Ownership.Revoke)
	}

	own := authed.Group("/ownership")
	{
		own.POST("/owners", h.Ownership.Assign)
		own.GET("/nodes/:nodeId/owner", h.Ownership.GetOwner)
		own.GET("/owners/:ownerType/:ownerId/properties", h.Ownership.ListByOwner)
		own.POST("/tenants", h.Ownership.AssignTenant)
		own.DELETE("/tenants/:nodeId", h.Ownership.ReleaseTenant)
	}

	plans := authed.Group("/payment-plans")
	{
		plans.POST("/templates", h.Plans.Create)
		plans.GET("/templates", h.Plans.ListTemplates)
		plans.GET("/templates/:id", h.Plans.Get)
		plans.PUT("/templates/:id", h.Plans.Update)
		plans.PUT("/templates/:id/active", h.Plans.SetActive)
		plans.GET("/wizard", h.Plans.Wizard)
	}

	sales := authed.Group("/sales")
	{
		sales.POST("/property-sales/create", h.Sales.Create)
		sales.GET("/property-sales", h.Sales.List)
		sales.GET("/property-sales/:id", h.Sales.Get)
		sales.PUT("/property-sales/:id/status", h.Sales.Transition)
		sales.GET("/installments/:saleItemId", h.Sales.Installments)
		sales.POST("/schedules/:scheduleId/pay", h.Sales.MarkPaid)
		sales.PUT("/items/:saleItemId/plan", h.Sales.UpdatePlan)
		sales.GET("/stats", h.Sales.Stats)
		sales.GET("/chart", h.Sales.Chart)
		sales.GET("/collection-rate", h.Sales.CollectionRate)
	}

	comm := authed.Group("/commissions")
	{
		comm.GET("", h.Commissions.List)
		comm.GET("/:id", h.Commissions.Get)
		comm.POST("/:id/approve", h.Commissions.Approve)
		comm.POST("/:id/cancel", h.Commissions.Cancel)
		comm.POST("/:id/pay", h.Commissions.Pay)
		comm.GET("/agents/:agentId", h.Commissions.ListByAgent)
		comm.GET("/sales/:saleId", h.Commissions.GetBySale)
		comm.POST("/sales/:saleId/recompute", h.Commissions.Recompute)
		comm.GET("/sales/:saleId/down-payments", h.Commissions.DownPayments)
	}

	docs := authed.Group("/documents")
	{
		docs.POST("/templates", h.Documents.CreateTemplate)
		docs.GET("/templates", h.Documents.ListTemplates)
		docs.GET("/templates/:id", h.Documents.GetTemplate)
		docs.POST("/offer-letters", h.Documents.CreateOffers)
		docs.POST("/convert-to-agreement", h.Documents.Convert)
		docs.GET("", h.Documents.List)
		docs.GET("/buyers/:buyerId", h.Documents.ListByBuyer)
		docs.GET("/:id", h.Documents.Get)
		docs.GET("/:id/file", h.Documents.GetFile)
		docs.POST("/:id/issue", h.Documents.Issue)
		docs.POST("/:id/accept", h.Documents.Accept)
		docs.POST("/:id/reject", h.Documents.Reject)
		docs.POST("/:id/withdraw", h.Documents.Withdraw)
		docs.POST("/:id/submit", h.Documents.Submit)
		docs.POST("/:id/expire", h.Documents.Expire)
		docs.POST("/:id/sign", h.Documents.Sign)
	}

	parties := authed.Group("/parties")
	{
		parties.POST("/users", h.Parties.CreateUser)
		parties.GET("/users", h.Parties.ListUsers)
		parties.GET("/users/:id", h.Parties.GetUser)
		parties.POST("/companies", h.Parties.CreateCompany)
		parties.GET("/companies", h.Parties.ListCompanies)
		parties.GET("/companies/:id", h.Parties.GetCompany)
	}

	payments := authed.Group("/payments")
	{
		payments.GET("/balance", h.Payments.Balance)
		payments.POST("/kyc", h.Payments.SubmitKYC)
	}

	authed.GET("/audit/:entityType/:id", h.Audit.ListByEntity)

	return router
}
