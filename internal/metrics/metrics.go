package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	GiftsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitclub_gifts_sent_total",
			Help: "Number of completed credit gifts",
		},
	)

	CheckIns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitclub_check_ins_total",
			Help: "Number of successful class check-ins",
		},
	)

	ReferralInvites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitclub_referral_invites_total",
			Help: "Number of referral invites created",
		},
	)

	PhotoUnlocks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitclub_photo_unlocks_total",
			Help: "Number of successful photo access code redemptions",
		},
	)

	BusyRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fitclub_busy_rejections_total",
			Help: "Number of actions rejected because the resource was busy",
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitclub_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func Register() {
	prometheus.MustRegister(
		GiftsSent, CheckIns, ReferralInvites, PhotoUnlocks, BusyRejections,
		RequestDuration,
	)
}
