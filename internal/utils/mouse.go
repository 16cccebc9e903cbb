package utils

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// X11Pointer queries the global pointer position from the X server. It is used
// when the editor window does not receive motion events (e.g. while a native
// drag is in progress outside of it).
type X11Pointer struct {
	Conn *xgb.Conn
	Root xproto.Window
}

// NewX11Pointer connects to the default display.
func NewX11Pointer() (*X11Pointer, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}

	setup := xproto.Setup(conn)
	return &X11Pointer{
		Conn: conn,
		Root: setup.DefaultScreen(conn).Root,
	}, nil
}

// Position returns the pointer position in root window coordinates.
func (p *X11Pointer) Position() (int, int, error) {
	reply, err := xproto.QueryPointer(p.Conn, p.Root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(reply.RootX), int(reply.RootY), nil
}

func (p *X11Pointer) Close() {
	if p.Conn != nil {
		p.Conn.Close()
	}
}
