package runspace

// Reconnect is Connect's entry point when resuming a previously
// disconnected pool: it requires Disconnected specifically (not
// BeforeOpen) and otherwise behaves identically, per SPEC_FULL's
// first-class reconnect/disconnect operations.
func (p *ClientRunspacePool) Reconnect() error {
	if err := requirePoolState("reconnect", p.state, Disconnected); err != nil {
		return err
	}
	return p.Connect()
}

// Disconnect requires Opened and moves the server pool to Disconnecting;
// the caller is responsible for tearing down the transport side.
func (p *ServerRunspacePool) Disconnect() error {
	if err := requirePoolState("disconnect", p.state, Opened); err != nil {
		return err
	}
	p.setState(Disconnecting)
	return nil
}

// NotifyDisconnected completes a Disconnect, moving the server pool from
// Disconnecting to Disconnected.
func (p *ServerRunspacePool) NotifyDisconnected() error {
	if err := requirePoolState("notify_disconnected", p.state, Disconnecting); err != nil {
		return err
	}
	p.setState(Disconnected)
	return nil
}

// NotifyReconnected moves the server pool from Disconnected back to
// Opened once the transport reports a client has reconnected.
func (p *ServerRunspacePool) NotifyReconnected() error {
	if err := requirePoolState("notify_reconnected", p.state, Disconnected); err != nil {
		return err
	}
	p.setState(Opened)
	return nil
}

// Close requires Opened or Disconnected and moves the server pool to
// Closing.
func (p *ServerRunspacePool) Close() error {
	if err := requirePoolState("close", p.state, Opened, Disconnected); err != nil {
		return err
	}
	p.setState(Closing)
	return nil
}

// NotifyClosed completes a Close, moving the server pool to Closed.
func (p *ServerRunspacePool) NotifyClosed() error {
	if err := requirePoolState("notify_closed", p.state, Closing); err != nil {
		return err
	}
	p.setState(Closed)
	return nil
}
