// shopctl sends one shop or admin command to a running shopd and prints the
// reply.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"servershop.gg/internal/protocol"
)

func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "operator", "player name")
		pos  = flag.String("pos", "", "position as x,y (optional)")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: shopctl [flags] <op> [args...]")
		fmt.Fprintln(os.Stderr, "ops: buy sell search populate balance modify reload region")
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "[shopctl] ", log.LstdFlags)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		logger.Fatalf("read WELCOME: %v", err)
	}
	var welcome protocol.WelcomeMsg
	if err := json.Unmarshal(msg, &welcome); err != nil || welcome.Type != protocol.TypeWelcome {
		logger.Fatalf("unexpected handshake reply: %s", msg)
	}
	logger.Printf("connected session=%s currency=%s zones=%v", welcome.SessionID, welcome.Currency, welcome.ShopZones)

	if *pos != "" {
		parts := strings.SplitN(*pos, ",", 2)
		if len(parts) != 2 {
			logger.Fatalf("bad -pos %q, want x,y", *pos)
		}
		x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
		y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errX != nil || errY != nil {
			logger.Fatalf("bad -pos %q, want x,y", *pos)
		}
		if err := conn.WriteJSON(protocol.PosMsg{
			Type:            protocol.TypePos,
			ProtocolVersion: protocol.Version,
			X:               x,
			Y:               y,
		}); err != nil {
			logger.Fatalf("send POS: %v", err)
		}
	}

	req := protocol.ReqMsg{
		Type:            protocol.TypeReq,
		ProtocolVersion: protocol.Version,
		ID:              "R1",
		Op:              args[0],
		Args:            args[1:],
	}
	if err := conn.WriteJSON(req); err != nil {
		logger.Fatalf("send REQ: %v", err)
	}

	// SLOT messages may interleave with the reply; wait for ours.
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Fatalf("read: %v", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil || base.Type != protocol.TypeReply {
			continue
		}
		var reply protocol.ReplyMsg
		if err := json.Unmarshal(msg, &reply); err != nil {
			logger.Fatalf("decode reply: %v", err)
		}
		if reply.OK {
			fmt.Println(reply.Message)
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", reply.Code, reply.Message)
		os.Exit(1)
	}
}
