package common

const (
	RedisStreamAlertCreated   = "risk.alert.created"
	RedisStreamRefreshRequest = "risk.refresh.request"

	RedisStreamGroup    = "monitor-group"
	RedisStreamConsumer = "monitor-consumer"

	RedisKeyAlertDedupe = "alert_dedupe:%d:%s:%s"
)
