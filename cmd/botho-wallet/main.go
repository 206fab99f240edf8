// Command botho-wallet is the offline keypair and address tool: generate a
// mnemonic, derive the view/spend keys and address it controls, and print
// subaddresses. It never talks to a running node — balance and spending
// require a node connection that does not exist yet in this tool.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/botho-project/botho/pkg/keys"
)

const walletFile = "wallet.mnemonic"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "generate":
		err = generateWallet()
	case "address":
		err = showAddress()
	case "subaddress":
		err = showSubaddress()
	default:
		fmt.Printf("unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "botho-wallet: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  botho-wallet generate                - generate a new 24-word mnemonic and save it to wallet.mnemonic")
	fmt.Println("  botho-wallet address                 - show the primary address for wallet.mnemonic")
	fmt.Println("  botho-wallet subaddress <major> <minor> - show a subaddress for wallet.mnemonic")
}

func generateWallet() error {
	if _, err := os.Stat(walletFile); err == nil {
		return fmt.Errorf("%s already exists; move it aside before generating a new wallet", walletFile)
	}

	mnemonic, err := keys.GenerateMnemonic(256)
	if err != nil {
		return fmt.Errorf("generating mnemonic: %w", err)
	}
	if err := os.WriteFile(walletFile, []byte(mnemonic+"\n"), 0600); err != nil {
		return fmt.Errorf("saving %s: %w", walletFile, err)
	}

	wallet, err := keys.NewWalletFromMnemonic(mnemonic, "", 0)
	if err != nil {
		return fmt.Errorf("deriving keys: %w", err)
	}
	defer wallet.Close()

	addr := wallet.PrimaryAddress()
	fmt.Println("Wallet generated.")
	fmt.Println("Mnemonic saved to:", walletFile)
	fmt.Println()
	fmt.Println("Back up wallet.mnemonic somewhere safe and offline — anyone who reads it controls these funds.")
	fmt.Println()
	printAddress(addr)
	return nil
}

func showAddress() error {
	wallet, err := loadWallet()
	if err != nil {
		return err
	}
	defer wallet.Close()
	printAddress(wallet.PrimaryAddress())
	return nil
}

func showSubaddress() error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: botho-wallet subaddress <major> <minor>")
	}
	var major, minor uint32
	if _, err := fmt.Sscanf(os.Args[2], "%d", &major); err != nil {
		return fmt.Errorf("invalid major index %q", os.Args[2])
	}
	if _, err := fmt.Sscanf(os.Args[3], "%d", &minor); err != nil {
		return fmt.Errorf("invalid minor index %q", os.Args[3])
	}

	wallet, err := loadWallet()
	if err != nil {
		return err
	}
	defer wallet.Close()

	addr := wallet.Subaddress(keys.Index{Major: major, Minor: minor})
	printAddress(addr)
	return nil
}

func printAddress(addr keys.Address) {
	fmt.Println("View public key: ", hex.EncodeToString(addr.ViewPub.Bytes()))
	fmt.Println("Spend public key:", hex.EncodeToString(addr.SpendPub.Bytes()))
	fmt.Println("Address:         ", hex.EncodeToString(addr.Bytes()))
}

func loadWallet() (*keys.WalletKeys, error) {
	data, err := os.ReadFile(walletFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s (run 'botho-wallet generate' first): %w", walletFile, err)
	}
	mnemonic := trimTrailingNewline(string(data))
	if !keys.ValidateMnemonic(mnemonic) {
		return nil, fmt.Errorf("%s does not contain a valid mnemonic", walletFile)
	}
	return keys.NewWalletFromMnemonic(mnemonic, "", 0)
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
