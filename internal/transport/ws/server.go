package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"servershop.gg/internal/config"
	"servershop.gg/internal/itemdefs"
	"servershop.gg/internal/ledger"
	"servershop.gg/internal/protocol"
	"servershop.gg/internal/shop"
)

// Server is the websocket gateway: it turns REQ messages into engine calls
// and streams REPLY/SLOT messages back.
type Server struct {
	shop   *shop.Shop
	defs   *itemdefs.Catalog
	ledger *ledger.SQLiteLedger
	cfg    config.Config
	log    *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(s *shop.Shop, defs *itemdefs.Catalog, led *ledger.SQLiteLedger, cfg config.Config, logger *log.Logger) *Server {
	return &Server{
		shop:   s,
		defs:   defs,
		ledger: led,
		cfg:    cfg,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-sess.out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypePos:
				var pos protocol.PosMsg
				if err := json.Unmarshal(msg, &pos); err != nil {
					continue
				}
				sess.setPosition(pos.X, pos.Y)
			case protocol.TypeReq:
				var req protocol.ReqMsg
				if err := json.Unmarshal(msg, &req); err != nil {
					continue
				}
				if req.ProtocolVersion != protocol.Version {
					continue
				}
				reply := s.handleReq(sess, req)
				b, err := json.Marshal(reply)
				if err != nil {
					continue
				}
				select {
				case sess.out <- b:
				default:
				}
			}
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	name := strings.TrimSpace(hello.PlayerName)
	if name == "" {
		name = "player"
	}

	if err := s.ledger.EnsureAccount(name, s.cfg.PlayerOpeningBalance); err != nil {
		s.log.Printf("ensure account %q: %v", name, err)
		return nil
	}

	out := make(chan []byte, 64)
	sess := newSession(name, s.cfg.InventorySlots, s.defs, out)

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		Currency:        s.cfg.Currency,
		ShopZones:       s.shop.Zones(),
		ItemsDigest:     s.defs.Digest(),
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		return nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return nil
	}
	return sess
}

func (s *Server) handleReq(sess *session, req protocol.ReqMsg) protocol.ReplyMsg {
	arg := func(i int) string {
		if i < len(req.Args) {
			return req.Args[i]
		}
		return ""
	}

	switch req.Op {
	case protocol.OpBuy:
		if arg(0) == "" {
			return s.fail(req, protocol.ErrBadRequest, "usage: buy <item> [amount|all]")
		}
		r, err := s.shop.Buy(sess, arg(0), arg(1))
		if err != nil {
			return s.errReply(req, err)
		}
		return s.ok(req, fmt.Sprintf("you bought %d %s(s) for %d %s", r.Amount, r.Item, r.Price, s.cfg.Currency),
			map[string]any{"item": r.Item, "amount": r.Amount, "price": r.Price, "stock": r.Stock})

	case protocol.OpSell:
		if arg(0) == "" {
			return s.fail(req, protocol.ErrBadRequest, "usage: sell <item> [amount|all]")
		}
		r, err := s.shop.Sell(sess, arg(0), arg(1))
		if err != nil {
			return s.errReply(req, err)
		}
		return s.ok(req, fmt.Sprintf("you sold %d %s(s) for %d %s", r.Amount, r.Item, r.Price, s.cfg.Currency),
			map[string]any{"item": r.Item, "amount": r.Amount, "price": r.Price, "stock": r.Stock})

	case protocol.OpSearch:
		if arg(0) == "" {
			return s.fail(req, protocol.ErrBadRequest, "usage: search <item>")
		}
		rep, err := s.shop.Search(arg(0))
		if err != nil {
			return s.errReply(req, err)
		}
		maxStock := "unlimited"
		if rep.MaxStock != shop.Unlimited {
			maxStock = fmt.Sprintf("%d", rep.MaxStock)
		}
		restock := "none"
		if rep.RestockTime != shop.NeverRestock {
			restock = fmt.Sprintf("%d", rep.RestockTime)
		}
		return s.ok(req, fmt.Sprintf("item: %s; buy price: %d %s; sell price: %d %s; stock: %d; max stock: %s; restock time: %s",
			rep.Name, rep.BuyPrice, s.cfg.Currency, rep.SellPrice, s.cfg.Currency, rep.Stock, maxStock, restock),
			map[string]any{
				"item": rep.Name, "buy_price": rep.BuyPrice, "sell_price": rep.SellPrice,
				"stock": rep.Stock, "max_stock": rep.MaxStock, "restock_time": rep.RestockTime,
			})

	case protocol.OpPopulate, protocol.OpBalance, protocol.OpModify, protocol.OpReload, protocol.OpRegion:
		if !s.cfg.IsAdmin(sess.name) {
			return s.fail(req, protocol.ErrNoPermission, "you do not have permission to do that")
		}
		return s.handleAdmin(sess, req, arg)

	default:
		return s.fail(req, protocol.ErrProtoBadRequest, fmt.Sprintf("unknown op %q", req.Op))
	}
}

func (s *Server) handleAdmin(sess *session, req protocol.ReqMsg, arg func(int) string) protocol.ReplyMsg {
	switch req.Op {
	case protocol.OpPopulate:
		confirm := arg(0) == "-confirm"
		n, err := s.shop.Populate(confirm)
		if errors.Is(err, shop.ErrConfirmRequired) {
			return s.fail(req, protocol.ErrBadRequest,
				"this inserts default rows for every known item and does not check for existing ones; repeat with -confirm to proceed")
		}
		if err != nil {
			return s.errReply(req, err)
		}
		s.log.Printf("admin %s populated inventory (%d rows)", sess.name, n)
		return s.ok(req, fmt.Sprintf("database populated with %d items", n), map[string]any{"inserted": n})

	case protocol.OpBalance:
		var policy int
		switch arg(0) {
		case "-shortage":
			policy = shop.RestockShortage
		case "-default":
			policy = shop.RestockDefault
		case "-surplus":
			policy = shop.RestockSurplus
		default:
			return s.fail(req, protocol.ErrBadRequest, "usage: balance -shortage|-default|-surplus")
		}
		n, err := s.shop.BalanceStocks(policy)
		if err != nil {
			return s.errReply(req, err)
		}
		return s.ok(req, fmt.Sprintf("balanced %d items", n), map[string]any{"changed": n})

	case protocol.OpModify:
		if arg(0) == "" || arg(1) == "" || arg(2) == "" {
			return s.fail(req, protocol.ErrBadRequest, "usage: modify <item> <field> <number>")
		}
		var value int
		if _, err := fmt.Sscanf(arg(2), "%d", &value); err != nil {
			return s.fail(req, protocol.ErrBadRequest, "invalid number")
		}
		it, err := s.shop.Modify(arg(0), arg(1), value)
		if err != nil {
			return s.errReply(req, err)
		}
		return s.ok(req, fmt.Sprintf("changed item %d: %s = %d", it.ID, strings.ToLower(arg(1)), value), nil)

	case protocol.OpReload:
		if err := s.shop.Reload(); err != nil {
			return s.errReply(req, err)
		}
		return s.ok(req, "inventory and shop zones reloaded; restock timers reset", nil)

	case protocol.OpRegion:
		name := arg(1)
		switch arg(0) {
		case "add":
			if err := s.shop.AddRegion(name); err != nil {
				return s.errReply(req, err)
			}
			return s.ok(req, fmt.Sprintf("%s is now a shop zone", name), nil)
		case "del":
			if err := s.shop.DelRegion(name); err != nil {
				return s.errReply(req, err)
			}
			return s.ok(req, fmt.Sprintf("%s is no longer a shop zone", name), nil)
		default:
			return s.fail(req, protocol.ErrBadRequest, "usage: region add|del <zone-name>")
		}
	}
	return s.fail(req, protocol.ErrProtoBadRequest, fmt.Sprintf("unknown op %q", req.Op))
}

func (s *Server) ok(req protocol.ReqMsg, msg string, data map[string]any) protocol.ReplyMsg {
	return protocol.ReplyMsg{
		Type:            protocol.TypeReply,
		ProtocolVersion: protocol.Version,
		ID:              req.ID,
		OK:              true,
		Message:         msg,
		Data:            data,
	}
}

func (s *Server) fail(req protocol.ReqMsg, code, msg string) protocol.ReplyMsg {
	return protocol.ReplyMsg{
		Type:            protocol.TypeReply,
		ProtocolVersion: protocol.Version,
		ID:              req.ID,
		OK:              false,
		Code:            code,
		Message:         msg,
	}
}

func (s *Server) errReply(req protocol.ReqMsg, err error) protocol.ReplyMsg {
	if r, ok := shop.AsReject(err); ok {
		return s.fail(req, r.Code, r.Message)
	}
	s.log.Printf("op %s: %v", req.Op, err)
	return s.fail(req, protocol.ErrInternal, "internal error")
}
