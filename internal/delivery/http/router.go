package http

import (
	"net/http"

	"referralrewards/internal/delivery/http/controllers"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Customers *controllers.CustomerController
	Referrals *controllers.ReferralController
	Rewards   *controllers.RewardController
	Stats     *controllers.StatsController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// Ops
	mux.HandleFunc("GET /health", c.Stats.Health)
	mux.Handle("GET /metrics", metricsHandler)

	// Customers
	mux.HandleFunc("POST /customers", c.Customers.CreateCustomer)
	mux.HandleFunc("GET /customers", c.Customers.ListCustomers)
	mux.HandleFunc("POST /customers/import", c.Customers.ImportCustomers)
	mux.HandleFunc("GET /customers/{id}", c.Customers.GetCustomer)
	mux.HandleFunc("DELETE /customers/{id}", c.Customers.DeleteCustomer)
	mux.HandleFunc("GET /customers/{id}/rewards/summary", c.Customers.RewardSummary)

	// Referrals
	mux.HandleFunc("POST /referrals", c.Referrals.CreateReferral)
	mux.HandleFunc("GET /referrals", c.Referrals.ListReferrals)
	mux.HandleFunc("GET /referrals/lookup/{code}", c.Referrals.LookupReferrer)
	mux.HandleFunc("GET /referrals/{id}", c.Referrals.GetReferral)
	mux.HandleFunc("PUT /referrals/{id}/status", c.Referrals.UpdateReferralStatus)
	mux.HandleFunc("POST /referrals/bulk-update", c.Referrals.BulkUpdateStatus)

	// Rewards
	mux.HandleFunc("POST /rewards", c.Rewards.CreateReward)
	mux.HandleFunc("GET /rewards", c.Rewards.ListRewards)
	mux.HandleFunc("PUT /rewards/{id}/status", c.Rewards.UpdateRewardStatus)

	// Dashboard
	mux.HandleFunc("GET /dashboard/stats", c.Stats.DashboardStats)
	mux.HandleFunc("GET /analytics/conversion-rate", c.Stats.ConversionRate)
	mux.HandleFunc("GET /analytics/revenue-impact", c.Stats.RevenueImpact)

	return mux
}
