package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cloudx-io/raffleauction/auctionapi"
	"github.com/cloudx-io/raffleauction/validation"
)

func main() {
	var (
		receiptInput = flag.String("receipt", "", "Settlement receipt (file path or inline base64)")
		keyInput     = flag.String("key", "", "Receipt verification key PEM (file path)")
		outputFormat = flag.String("format", "text", "Output format: text or json")
		help         = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	if *help {
		showUsage()
		os.Exit(0)
	}

	if *receiptInput == "" || *keyInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: Both inputs are required (--receipt, --key)\n")
		os.Exit(1)
	}

	receiptB64, err := readInput(*receiptInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading receipt: %v\n", err)
		os.Exit(2)
	}

	keyPEM, err := os.ReadFile(*keyInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading verification key: %v\n", err)
		os.Exit(2)
	}

	key, err := validation.ParsePublicKeyPEM(keyPEM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing verification key: %v\n", err)
		os.Exit(2)
	}

	receipt, err := validation.VerifyReceiptBase64(auctionapi.ReceiptBase64(receiptB64), key)
	if err != nil {
		if *outputFormat == "json" {
			outputJSON(false, nil, err)
		} else {
			fmt.Println("VERIFICATION: ✗ FAILED")
			fmt.Printf("  %v\n", err)
		}
		os.Exit(1)
	}

	if *outputFormat == "json" {
		outputJSON(true, receipt, nil)
	} else {
		outputText(receipt)
	}
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Settlement Receipt Validator")
	fmt.Println()
	fmt.Println("Verifies a COSE_Sign1 settlement receipt against the auction daemon's")
	fmt.Println("published verification key and prints the receipt contents.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  receipt-validator --receipt <base64> --key <pem-file> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --receipt <base64>    Receipt from a claim or payment response")
	fmt.Println("                        (file path or inline base64 string)")
	fmt.Println("  --key <pem-file>      Verification key PEM, as logged by the daemon")
	fmt.Println("                        at startup")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --format <text|json>  Output format (default: text)")
	fmt.Println("  --help                Show this help message")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Receipt verified")
	fmt.Println("  1 - Verification failed")
	fmt.Println("  2 - Invalid input or runtime error")
}

func readInput(input string) (string, error) {
	if data, err := os.ReadFile(input); err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(input), nil
}

func outputText(receipt *auctionapi.SettlementReceipt) {
	fmt.Println("Settlement Receipt Validator")
	fmt.Println("============================")
	fmt.Println()
	fmt.Printf("  Receipt ID:      %s\n", receipt.ReceiptID)
	fmt.Printf("  Kind:            %s\n", receipt.Kind)
	fmt.Printf("  Participant:     %s\n", receipt.Participant)
	fmt.Printf("  Amount:          %s\n", receipt.Amount)
	if receipt.PrizeID != "" {
		fmt.Printf("  Prize ID:        %s\n", receipt.PrizeID)
	}
	if receipt.ClaimHash != "" {
		fmt.Printf("  Claim Hash:      %s\n", receipt.ClaimHash)
	}
	fmt.Printf("  Winner Set Hash: %s\n", receipt.WinnerSetHash)
	fmt.Printf("  Timestamp:       %s\n", receipt.Timestamp)
	fmt.Println()
	fmt.Println("VERIFICATION: ✓ PASSED")
}

func outputJSON(valid bool, receipt *auctionapi.SettlementReceipt, verifyErr error) {
	output := map[string]any{
		"valid": valid,
	}
	if receipt != nil {
		output["receipt"] = receipt
	}
	if verifyErr != nil {
		output["error"] = verifyErr.Error()
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(string(data))
}
