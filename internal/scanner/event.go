package scanner

// Event is one of ConnectionChanged, Error, ButtonChanged, ScanningChanged
// or BarcodeRead.
type Event interface {
	deliver(d Delegate)
}

type ConnectionChanged struct {
	State   State
	Details string
}

type Error struct {
	Message string
	Details string
}

// ButtonChanged carries a reply channel so the emitting backend learns
// whether the delegate consumed the press.
type ButtonChanged struct {
	IsLeft    bool
	IsPressed bool

	reply chan bool
}

type ScanningChanged struct {
	IsScanning bool
	Details    string
}

type BarcodeRead struct {
	Payload   string
	Symbology string
}

func (e ConnectionChanged) deliver(d Delegate) {
	d.OnConnected(e.State == Connected, e.Details)
}

func (e Error) deliver(d Delegate) {
	d.OnError(e.Message, e.Details)
}

func (e ButtonChanged) deliver(d Delegate) {
	handled := d.OnButton(e.IsLeft, e.IsPressed)
	if e.reply != nil {
		e.reply <- handled
	}
}

func (e ScanningChanged) deliver(d Delegate) {
	d.OnScanning(e.IsScanning, e.Details)
}

func (e BarcodeRead) deliver(d Delegate) {
	d.OnBarcode(e.Payload, e.Symbology)
}
