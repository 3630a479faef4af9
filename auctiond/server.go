package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mdlayher/vsock"

	"github.com/cloudx-io/raffleauction/auctionapi"
	"github.com/cloudx-io/raffleauction/core"
	"github.com/cloudx-io/raffleauction/mint"
	"github.com/cloudx-io/raffleauction/roles"
	"github.com/cloudx-io/raffleauction/treasury"
)

// AuctionServer serves the auction's mutating and query surface over a
// connection-per-request JSON protocol. It listens on TCP by default and on
// vsock when deployed inside an enclave.
type AuctionServer struct {
	port     uint32
	useVsock bool

	bids       *core.BidEngine
	settlement *core.SettlementEngine
	registry   *roles.Registry
	treasury   *treasury.Treasury
	minter     *mint.Minter
	signer     *ReceiptSigner
}

// NewAuctionServer wires the engines, collaborators and receipt signer.
func NewAuctionServer(port uint32, useVsock bool, params core.Params, admins []core.ParticipantID) (*AuctionServer, error) {
	registry := roles.NewRegistry(admins...)
	custody := treasury.New()
	minter := mint.New(params.PrizeCollection)

	bids, settlement, err := core.NewAuction(core.Config{
		Params:  params,
		Admin:   registry,
		Custody: custody,
		Prizes:  minter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assemble auction: %w", err)
	}

	signer, err := NewReceiptSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize receipt signer: %w", err)
	}

	return &AuctionServer{
		port:       port,
		useVsock:   useVsock,
		bids:       bids,
		settlement: settlement,
		registry:   registry,
		treasury:   custody,
		minter:     minter,
		signer:     signer,
	}, nil
}

func (s *AuctionServer) listen() (net.Listener, error) {
	if s.useVsock {
		return vsock.Listen(s.port, nil)
	}
	return net.Listen("tcp", fmt.Sprintf(":%d", s.port))
}

func (s *AuctionServer) Start() error {
	pem, err := s.signer.PublicKeyPEM()
	if err != nil {
		return fmt.Errorf("failed to export receipt verification key: %w", err)
	}
	log.Printf("INFO: Receipt verification key:\n%s", pem)

	listener, err := s.listen()
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Printf("ERROR: Failed to close listener: %v", err)
		}
	}()

	if s.useVsock {
		log.Printf("INFO: Auction server listening on vsock port %d", s.port)
	} else {
		log.Printf("INFO: Auction server listening on tcp port %d", s.port)
	}

	maxWorkers, err := getRequiredEnvInt("AUCTIOND_MAX_WORKERS")
	if err != nil {
		return fmt.Errorf("failed to get max workers config: %w", err)
	}
	semaphore := make(chan struct{}, maxWorkers)

	log.Printf("INFO: Worker pool initialized with %d max concurrent workers", maxWorkers)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("ERROR: Failed to accept connection: %v", err)
			continue
		}

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }() // Release worker slot
				s.handleConnection(c)
			}(conn)
		default:
			log.Printf("INFO: No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				log.Printf("ERROR: Failed to close rejected connection: %v", err)
			}
		}
	}
}

func (s *AuctionServer) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Panic recovered in handleConnection: %v", r)
		}
		if err := conn.Close(); err != nil {
			log.Printf("ERROR: Failed to close connection: %v", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var buf bytes.Buffer
	_, err := io.Copy(&buf, conn)
	if err != nil {
		log.Printf("ERROR: Failed to read request: %v", err)
		return
	}

	var baseReq struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(buf.Bytes(), &baseReq); err != nil {
		log.Printf("ERROR: Failed to decode base request: %v", err)
		return
	}

	log.Printf("INFO: Received request type: %s", baseReq.Type)

	response := s.dispatch(baseReq.Type, buf.Bytes())

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
	} else {
		log.Printf("INFO: Successfully sent response for %s", baseReq.Type)
	}
}

func (s *AuctionServer) dispatch(reqType string, raw []byte) any {
	switch reqType {
	case auctionapi.TypePing:
		return map[string]any{
			"type":      "pong",
			"message":   "auction server is healthy",
			"timestamp": time.Now().Unix(),
		}

	case auctionapi.TypeBid:
		var req auctionapi.BidRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return decodeError(reqType, err)
		}
		return s.processBid(req)

	case auctionapi.TypeIncreaseBid:
		var req auctionapi.IncreaseBidRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return decodeError(reqType, err)
		}
		return s.processIncreaseBid(req)

	case auctionapi.TypeClaim:
		var req auctionapi.ClaimRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return decodeError(reqType, err)
		}
		return s.processClaim(req)

	case auctionapi.TypeClaimWinners, auctionapi.TypeSendPayment,
		auctionapi.TypeGrantRole, auctionapi.TypeRevokeRole, auctionapi.TypeRenounceRole:
		var req auctionapi.AdminRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return decodeError(reqType, err)
		}
		return s.processAdmin(req)

	case auctionapi.TypeSetParam:
		var req auctionapi.SetParamRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return decodeError(reqType, err)
		}
		return s.processSetParam(req)

	case auctionapi.TypeQuery:
		var req auctionapi.QueryRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return decodeError(reqType, err)
		}
		return s.processQuery(req)

	default:
		return map[string]any{
			"type":    "error",
			"message": fmt.Sprintf("Unknown request type: %s", reqType),
		}
	}
}

func decodeError(reqType string, err error) any {
	log.Printf("ERROR: Failed to decode %s request: %v", reqType, err)
	return map[string]any{
		"type":    "error",
		"message": fmt.Sprintf("Failed to decode %s request: %v", reqType, err),
	}
}

// Helper function for required environment variable parsing
func getRequiredEnvInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, fmt.Errorf("required environment variable %s is not set", key)
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %s (must be a valid integer)", key, value)
	}

	log.Printf("INFO: Using %s=%d from environment", key, intValue)
	return intValue, nil
}

func getRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

func getRequiredEnvAmount(key string) (uint64, error) {
	value, err := getRequiredEnv(key)
	if err != nil {
		return 0, err
	}
	amount, err := core.ParseAmount(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	log.Printf("INFO: Using %s=%s from environment", key, value)
	return amount, nil
}

func paramsFromEnv() (core.Params, []core.ParticipantID, error) {
	reserve, err := getRequiredEnvAmount("AUCTION_RESERVE_PRICE")
	if err != nil {
		return core.Params{}, nil, err
	}
	ceiling, err := getRequiredEnvAmount("AUCTION_HIGHEST_BID_PRICE")
	if err != nil {
		return core.Params{}, nil, err
	}
	increment, err := getRequiredEnvAmount("AUCTION_MIN_INCREMENT")
	if err != nil {
		return core.Params{}, nil, err
	}
	prizeCount, err := getRequiredEnvInt("AUCTION_PRIZE_COUNT")
	if err != nil {
		return core.Params{}, nil, err
	}
	endRaw, err := getRequiredEnv("AUCTION_END_TIME")
	if err != nil {
		return core.Params{}, nil, err
	}
	endTime, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return core.Params{}, nil, fmt.Errorf("invalid AUCTION_END_TIME: %w", err)
	}
	recipient, err := getRequiredEnv("AUCTION_PROCEEDS_RECIPIENT")
	if err != nil {
		return core.Params{}, nil, err
	}
	adminsRaw, err := getRequiredEnv("AUCTION_ADMINS")
	if err != nil {
		return core.Params{}, nil, err
	}

	var admins []core.ParticipantID
	for _, a := range strings.Split(adminsRaw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			admins = append(admins, core.ParticipantID(a))
		}
	}
	if len(admins) == 0 {
		return core.Params{}, nil, fmt.Errorf("AUCTION_ADMINS must name at least one administrator")
	}

	params := core.Params{
		ReservePrice:      reserve,
		HighestBidPrice:   ceiling,
		MinIncrement:      increment,
		PrizeCount:        prizeCount,
		AuctionEndTime:    endTime,
		ProceedsRecipient: core.ParticipantID(recipient),
		PrizeCollection:   os.Getenv("AUCTION_PRIZE_COLLECTION"),
	}
	return params, admins, nil
}

func main() {
	port, err := getRequiredEnvInt("AUCTIOND_PORT")
	if err != nil {
		log.Fatal(err)
	}
	useVsock := os.Getenv("AUCTIOND_LISTEN") == "vsock"

	params, admins, err := paramsFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	server, err := NewAuctionServer(uint32(port), useVsock, params, admins)
	if err != nil {
		log.Fatal(err)
	}
	log.Fatal(server.Start())
}
