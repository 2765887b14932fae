package server

// OnConnected implements scanner.Delegate
func (s *Server) OnConnected(isConnected bool, details string) {
	s.broadcastEvent(ScannerEvent{Kind: "connection", Connected: isConnected, Details: details})
}

// OnError implements scanner.Delegate
func (s *Server) OnError(message, details string) {
	s.log.Warn().Str("details", details).Msg("Scanner error: " + message)
	s.broadcastEvent(ScannerEvent{Kind: "error", Message: message, Details: details})
}

// OnButton implements scanner.Delegate. Clients only observe buttons, so the
// backend always runs its default trigger.
func (s *Server) OnButton(isLeft, isPressed bool) bool {
	s.broadcastEvent(ScannerEvent{Kind: "button", IsLeft: isLeft, IsPressed: isPressed})
	return false
}

// OnScanning implements scanner.Delegate
func (s *Server) OnScanning(isScanning bool, details string) {
	s.broadcastEvent(ScannerEvent{Kind: "scanning", IsScanning: isScanning, Details: details})
}

// OnBarcode implements scanner.Delegate
func (s *Server) OnBarcode(payload, symbology string) {
	s.log.Debug().Str("symbology", symbology).Msg("Barcode read")
	s.broadcastEvent(ScannerEvent{Kind: "barcode", Payload: payload, Symbology: symbology})
}

func (s *Server) broadcastEvent(ev ScannerEvent) {
	s.Broadcast(Response{Type: "scanner_event", Event: &ev})
}
