package api

import (
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("api")

type GatewayConfig struct {
	Listener   net.Listener
	NoCors     bool
	AllowedIPs map[string]bool
	Cookie     string
	Username   string
	Password   string
	UseSSL     bool
	SSLCert    string
	SSLKey     string
}

// Gateway represents an HTTP API gateway
type Gateway struct {
	listener net.Listener
	node     CoreIface
	handler  http.Handler
	config   *GatewayConfig
	hub      *hub
}

// NewGateway instantiates a new gateway. The wallet API and the
// websocket notification endpoint share the listener.
func NewGateway(node CoreIface, config *GatewayConfig) (*Gateway, error) {
	var (
		g = &Gateway{
			node:     node,
			config:   config,
			listener: config.Listener,
			hub:      newHub(),
		}
		topMux = http.NewServeMux()
	)

	r := g.newV1Router()

	if !config.NoCors {
		r.Use(mux.CORSMethodMiddleware(r))
	}
	r.Use(g.AuthenticationMiddleware)

	topMux.Handle("/v1/wallet/", r)
	topMux.Handle("/ws", newWebsocketHandler(g.hub))

	g.handler = topMux

	go g.hub.run()

	return g, nil
}

// Close shutsdown the Gateway listener.
func (g *Gateway) Close() error {
	return g.listener.Close()
}

// Serve begins listening on the configured address.
func (g *Gateway) Serve() error {
	log.Infof("Gateway/API server listening on %s\n", g.listener.Addr())
	var err error
	if g.config.UseSSL {
		err = http.ListenAndServeTLS(g.listener.Addr().String(), g.config.SSLCert, g.config.SSLKey, g.handler)
	} else {
		err = http.Serve(g.listener, g.handler)
	}
	return err
}

// NotifyWebsockets pushes the JSON serialization of i to every open
// websocket connection.
func (g *Gateway) NotifyWebsockets(i interface{}) error {
	out, err := marshalAndSanitizeJSON(i)
	if err != nil {
		return err
	}
	g.hub.Broadcast <- out
	return nil
}

func (g *Gateway) newV1Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/v1/wallet/address", g.handleGETAddress).Methods("GET")
	r.HandleFunc("/v1/wallet/balance", g.handleGETBalance).Methods("GET")
	r.HandleFunc("/v1/wallet/balance/refresh", g.handlePOSTRefreshBalance).Methods("POST")
	r.HandleFunc("/v1/wallet/transactions", g.handleGETTransactions).Methods("GET")
	r.HandleFunc("/v1/wallet/fee", g.handleGETFee).Methods("GET")
	r.HandleFunc("/v1/wallet/price", g.handleGETPrice).Methods("GET")
	r.HandleFunc("/v1/wallet/session", g.handleGETSession).Methods("GET")
	r.HandleFunc("/v1/wallet/spend", g.handlePOSTSpend).Methods("POST")
	r.HandleFunc("/v1/wallet/login", g.handlePOSTLogin).Methods("POST")
	r.HandleFunc("/v1/wallet/logout", g.handlePOSTLogout).Methods("POST")
	return r
}
