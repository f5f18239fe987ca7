// Package resilience holds fault tolerance building blocks for outbound
// delivery. Each notification channel runs behind its own circuit breaker so
// a failing destination (a revoked Slack webhook, a push service outage)
// stops consuming dispatch workers quickly and recovers on its own.
//
// Usage:
//
//	cb := circuitbreaker.New(circuitbreaker.SlackWebhookConfig())
//	_, err := cb.Execute(func() (interface{}, error) {
//	    return nil, sendToSlack(ctx, msg)
//	})
package resilience
