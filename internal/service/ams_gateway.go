package service

import "log/slog"

// AmsGateway queries the registry over http and streams it over websocket.
type AmsGateway struct {
	*AmsGraphqlClient
	*AmsSubscriptionClient
}

func NewAmsGateway(logger *slog.Logger, httpURL string, wsURL string) *AmsGateway {
	return &AmsGateway{
		AmsGraphqlClient:      NewAmsGraphqlClient(logger, map[string]string{AmsEndpoint: httpURL}),
		AmsSubscriptionClient: NewAmsSubscriptionClient(logger, wsURL),
	}
}
