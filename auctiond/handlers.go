package main

import (
	"fmt"
	"log"
	"time"

	"github.com/cloudx-io/raffleauction/auctionapi"
	"github.com/cloudx-io/raffleauction/core"
)

func (s *AuctionServer) processBid(req auctionapi.BidRequest) auctionapi.BidResponse {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return auctionapi.BidResponse{Type: "bid_response", Message: err.Error()}
	}

	participant := core.ParticipantID(req.Participant)

	// The wire request carries the attached value; credit it before the
	// engine draws it into custody. A rejected bid leaves the credit on the
	// participant's free balance.
	if err := s.treasury.Credit(participant, amount); err != nil {
		log.Printf("INFO: Bid rejected for %s: %v", participant, err)
		return auctionapi.BidResponse{Type: "bid_response", Message: err.Error()}
	}

	if err := s.bids.Bid(participant, amount); err != nil {
		log.Printf("INFO: Bid rejected for %s: %v", participant, err)
		return auctionapi.BidResponse{Type: "bid_response", Message: err.Error()}
	}

	bids := s.bids.UserBids([]core.ParticipantID{participant})
	log.Printf("INFO: Bid accepted: %s amount=%s inHeap=%v", participant, req.Amount, bids[0].InHeap)
	return auctionapi.BidResponse{
		Type:    "bid_response",
		Success: true,
		Amount:  core.FormatAmount(bids[0].Amount),
		InHeap:  bids[0].InHeap,
	}
}

func (s *AuctionServer) processIncreaseBid(req auctionapi.IncreaseBidRequest) auctionapi.BidResponse {
	delta, err := core.ParseAmount(req.Delta)
	if err != nil {
		return auctionapi.BidResponse{Type: "increase_bid_response", Message: err.Error()}
	}

	participant := core.ParticipantID(req.Participant)
	if err := s.treasury.Credit(participant, delta); err != nil {
		log.Printf("INFO: Increase rejected for %s: %v", participant, err)
		return auctionapi.BidResponse{Type: "increase_bid_response", Message: err.Error()}
	}

	if err := s.bids.IncreaseBid(participant, delta); err != nil {
		log.Printf("INFO: Increase rejected for %s: %v", participant, err)
		return auctionapi.BidResponse{Type: "increase_bid_response", Message: err.Error()}
	}

	bids := s.bids.UserBids([]core.ParticipantID{participant})
	log.Printf("INFO: Increase accepted: %s total=%s inHeap=%v",
		participant, core.FormatAmount(bids[0].Amount), bids[0].InHeap)
	return auctionapi.BidResponse{
		Type:    "increase_bid_response",
		Success: true,
		Amount:  core.FormatAmount(bids[0].Amount),
		InHeap:  bids[0].InHeap,
	}
}

func (s *AuctionServer) processClaim(req auctionapi.ClaimRequest) auctionapi.ClaimResponse {
	participant := core.ParticipantID(req.Participant)

	outcome, err := s.settlement.ClaimAndRefund(participant)
	if err != nil {
		log.Printf("INFO: Claim rejected for %s: %v", participant, err)
		return auctionapi.ClaimResponse{Type: "claim_response", Message: err.Error()}
	}

	receipt, err := s.signClaimReceipt(outcome)
	if err != nil {
		// The settlement is committed; a missing receipt is reported but
		// does not undo the payout.
		log.Printf("ERROR: Failed to sign receipt for %s: %v", participant, err)
	}

	resp := auctionapi.ClaimResponse{
		Type:          "claim_response",
		Success:       true,
		Winner:        outcome.Winner,
		ReceiptBase64: string(receipt),
	}
	if outcome.Winner {
		resp.PrizeID = outcome.Prize.String()
		log.Printf("INFO: Winner %s claimed prize %s", participant, resp.PrizeID)
	} else {
		resp.Refund = core.FormatAmount(outcome.Refund)
		log.Printf("INFO: Loser %s refunded %s", participant, resp.Refund)
	}
	return resp
}

func (s *AuctionServer) processAdmin(req auctionapi.AdminRequest) any {
	caller := core.ParticipantID(req.Caller)
	target := core.ParticipantID(req.Target)

	switch req.Type {
	case auctionapi.TypeClaimWinners:
		outcomes, err := s.settlement.ClaimWinners(caller)
		if err != nil {
			log.Printf("INFO: claimWinners rejected for %s: %v", caller, err)
			return auctionapi.ClaimWinnersResponse{Type: "claim_winners_response", Message: err.Error(), Settled: len(outcomes)}
		}
		resp := auctionapi.ClaimWinnersResponse{
			Type:    "claim_winners_response",
			Success: true,
			Settled: len(outcomes),
		}
		for _, outcome := range outcomes {
			resp.PrizeIDs = append(resp.PrizeIDs, outcome.Prize.String())
			receipt, err := s.signClaimReceipt(outcome)
			if err != nil {
				log.Printf("ERROR: Failed to sign receipt for %s: %v", outcome.Participant, err)
				continue
			}
			resp.ReceiptsBase64 = append(resp.ReceiptsBase64, string(receipt))
		}
		log.Printf("INFO: claimWinners settled %d winners", len(outcomes))
		return resp

	case auctionapi.TypeSendPayment:
		recipient := s.bids.Params().ProceedsRecipient
		proceeds, err := s.settlement.SendPayment(caller)
		if err != nil {
			log.Printf("INFO: sendPayment rejected for %s: %v", caller, err)
			return auctionapi.SendPaymentResponse{Type: "send_payment_response", Message: err.Error()}
		}

		var receiptB64 auctionapi.ReceiptBase64
		receipt, err := buildProceedsReceipt(recipient, proceeds, s.settlement.WinningSet())
		if err == nil {
			var envelope []byte
			if envelope, err = s.signer.SignReceipt(receipt); err == nil {
				receiptB64 = auctionapi.EncodeReceipt(envelope)
			}
		}
		if err != nil {
			log.Printf("ERROR: Failed to sign proceeds receipt: %v", err)
		}

		log.Printf("INFO: Proceeds %s sent to %s", core.FormatAmount(proceeds), recipient)
		return auctionapi.SendPaymentResponse{
			Type:          "send_payment_response",
			Success:       true,
			Proceeds:      core.FormatAmount(proceeds),
			Recipient:     string(recipient),
			ReceiptBase64: string(receiptB64),
		}

	case auctionapi.TypeGrantRole:
		if err := s.registry.Grant(caller, target); err != nil {
			return auctionapi.AckResponse{Type: "role_response", Message: err.Error()}
		}
		log.Printf("INFO: %s granted admin to %s", caller, target)
		return auctionapi.AckResponse{Type: "role_response", Success: true}

	case auctionapi.TypeRevokeRole:
		if err := s.registry.Revoke(caller, target); err != nil {
			return auctionapi.AckResponse{Type: "role_response", Message: err.Error()}
		}
		log.Printf("INFO: %s revoked admin from %s", caller, target)
		return auctionapi.AckResponse{Type: "role_response", Success: true}

	case auctionapi.TypeRenounceRole:
		if err := s.registry.Renounce(caller); err != nil {
			return auctionapi.AckResponse{Type: "role_response", Message: err.Error()}
		}
		log.Printf("INFO: %s renounced admin", caller)
		return auctionapi.AckResponse{Type: "role_response", Success: true}

	default:
		return auctionapi.AckResponse{Type: "role_response", Message: fmt.Sprintf("unknown admin request %s", req.Type)}
	}
}

func (s *AuctionServer) processSetParam(req auctionapi.SetParamRequest) auctionapi.AckResponse {
	caller := core.ParticipantID(req.Caller)
	fail := func(err error) auctionapi.AckResponse {
		log.Printf("INFO: setParam %s rejected for %s: %v", req.Param, caller, err)
		return auctionapi.AckResponse{Type: "set_param_response", Message: err.Error()}
	}

	switch req.Param {
	case auctionapi.ParamReservePrice, auctionapi.ParamHighestBidPrice, auctionapi.ParamMinIncrement:
		amount, err := core.ParseAmount(req.Value)
		if err != nil {
			return fail(err)
		}
		switch req.Param {
		case auctionapi.ParamReservePrice:
			err = s.bids.SetReservePrice(caller, amount)
		case auctionapi.ParamHighestBidPrice:
			err = s.bids.SetHighestBidPrice(caller, amount)
		case auctionapi.ParamMinIncrement:
			err = s.bids.SetMinIncrement(caller, amount)
		}
		if err != nil {
			return fail(err)
		}

	case auctionapi.ParamPrizeCollection:
		if err := s.bids.SetPrizeCollection(caller, req.Value); err != nil {
			return fail(err)
		}

	case auctionapi.ParamProceedsRecipient:
		if err := s.bids.SetProceedsRecipient(caller, core.ParticipantID(req.Value)); err != nil {
			return fail(err)
		}

	case auctionapi.ParamAuctionEndTime:
		end, err := time.Parse(time.RFC3339, req.Value)
		if err != nil {
			return fail(fmt.Errorf("invalid end time: %w", err))
		}
		if err := s.bids.SetAuctionEndTime(caller, end); err != nil {
			return fail(err)
		}

	default:
		return fail(fmt.Errorf("unknown parameter %q", req.Param))
	}

	log.Printf("INFO: Parameter %s set to %s by %s", req.Param, req.Value, caller)
	return auctionapi.AckResponse{Type: "set_param_response", Success: true}
}

func (s *AuctionServer) processQuery(req auctionapi.QueryRequest) auctionapi.QueryResponse {
	resp := auctionapi.QueryResponse{Type: "query_response", Success: true}

	switch req.What {
	case auctionapi.QueryFloorBid:
		if floor, ok := s.bids.FloorBid(); ok {
			resp.Floor = &floor
		}

	case auctionapi.QueryBidAmount:
		resp.Amount = core.FormatAmount(s.bids.BidAmountOf(core.ParticipantID(req.Participant)))

	case auctionapi.QueryTotalBids:
		resp.TotalBids = s.bids.TotalBids()

	case auctionapi.QueryUserBids:
		ids := make([]core.ParticipantID, len(req.Participants))
		for i, p := range req.Participants {
			ids[i] = core.ParticipantID(p)
		}
		resp.UserBids = s.bids.UserBids(ids)

	case auctionapi.QueryClaimInfo:
		info := s.settlement.ClaimInfoOf(core.ParticipantID(req.Participant))
		resp.ClaimInfo = &info

	case auctionapi.QueryValueLocked:
		resp.ValueLocked = core.FormatAmount(s.bids.TotalValueLocked())

	case auctionapi.QueryWinningSet:
		resp.WinningSet = s.bids.WinningSet()

	default:
		resp.Success = false
		resp.Message = fmt.Sprintf("unknown query %q", req.What)
	}

	return resp
}
