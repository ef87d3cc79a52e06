package websocket

import (
	"go.uber.org/zap"
)

// ConnectionLogger provides structured logging for WebSocket events
type ConnectionLogger struct {
	logger *zap.Logger
}

func NewConnectionLogger(l *zap.Logger) *ConnectionLogger {
	if l == nil {
		l = zap.L()
	}
	return &ConnectionLogger{
		logger: l.With(zap.String("component", "websocket")),
	}
}

func (l *ConnectionLogger) fields(event, connectionID, clientID string, extra []zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("event", event),
		zap.String("connection_id", connectionID),
		zap.String("client_id", clientID),
	}, extra...)
}

func (l *ConnectionLogger) Info(event, connectionID, clientID string, fields ...zap.Field) {
	l.logger.Info("websocket_event", l.fields(event, connectionID, clientID, fields)...)
}

func (l *ConnectionLogger) Warn(event, connectionID, clientID string, fields ...zap.Field) {
	l.logger.Warn("websocket_warning", l.fields(event, connectionID, clientID, fields)...)
}

func (l *ConnectionLogger) Error(event, connectionID, clientID string, err error, fields ...zap.Field) {
	l.logger.Error("websocket_error", l.fields(event, connectionID, clientID, append(fields, zap.Error(err)))...)
}
