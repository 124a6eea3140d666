package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Domain records business events: codes issued, redemptions, feed activity
// and outbound delivery outcomes. A nil *Domain is a valid no-op recorder.
type Domain struct {
	keysIssued    *prometheus.CounterVec
	redemptions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	repeats       prometheus.Counter
	deliveries    *prometheus.CounterVec
	adminDenials  *prometheus.CounterVec
}

// NewDomain registers the domain metrics on the provided registerer.
func NewDomain(reg prometheus.Registerer) *Domain {
	if reg == nil {
		return &Domain{}
	}
	d := &Domain{
		keysIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_codes_issued_total",
			Help: "Access codes minted, by kind.",
		}, []string{"kind"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_redemptions_total",
			Help: "Gift redemptions, by scope and outcome.",
		}, []string{"scope", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_notifications_appended_total",
			Help: "Notifications appended to the feed, by type.",
		}, []string{"type"}),
		repeats: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sb_announcement_repeats_total",
			Help: "Repeating copies of the persistent announcement emitted.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_deliveries_total",
			Help: "Outbound event deliveries, by channel and outcome.",
		}, []string{"channel", "outcome"}),
		adminDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_admin_denials_total",
			Help: "Rejected admin operations, by action.",
		}, []string{"action"}),
	}
	reg.MustRegister(d.keysIssued, d.redemptions, d.notifications, d.repeats, d.deliveries, d.adminDenials)
	return d
}

func (d *Domain) IncCodeIssued(kind string) {
	if d == nil || d.keysIssued == nil {
		return
	}
	d.keysIssued.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (d *Domain) IncRedemption(scope, outcome string) {
	if d == nil || d.redemptions == nil {
		return
	}
	d.redemptions.WithLabelValues(normalizeLabel(scope), normalizeLabel(outcome)).Inc()
}

func (d *Domain) IncNotification(kind string) {
	if d == nil || d.notifications == nil {
		return
	}
	d.notifications.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (d *Domain) IncAnnouncementRepeat() {
	if d == nil || d.repeats == nil {
		return
	}
	d.repeats.Inc()
}

// IncDelivery counts one delivery attempt; outcome is "ok" or "error".
func (d *Domain) IncDelivery(channel, outcome string) {
	if d == nil || d.deliveries == nil {
		return
	}
	d.deliveries.WithLabelValues(normalizeLabel(channel), normalizeLabel(outcome)).Inc()
}

func (d *Domain) IncAdminDenied(action string) {
	if d == nil || d.adminDenials == nil {
		return
	}
	d.adminDenials.WithLabelValues(normalizeLabel(action)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
