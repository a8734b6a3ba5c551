package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chukul/cloudview/internal"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage encryption secret",
	Long:  `Manage the encryption secret used to protect the stored session token.`,
}

var secretShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current keychain secret",
	Long:  "Reveal the secret stored in your macOS Keychain. The system may ask you to authenticate.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !internal.IsMacOS() {
			return internal.ErrKeychainUnsupported
		}

		secret, err := internal.GetKeychainItem(internal.KeychainAccount)
		if err != nil {
			return errors.New("no secret found in Keychain or it couldn't be accessed")
		}

		fmt.Println("🔐 Your cloudview Encryption Secret:")
		fmt.Println(strings.Repeat("─", 64))
		fmt.Println(secret)
		fmt.Println(strings.Repeat("─", 64))
		fmt.Println("\n⚠️  KEEP THIS SAFE! You will need it to read your session on another machine.")
		fmt.Println("   To restore: cloudview secret import <key>")
		return nil
	},
}

var secretImportCmd = &cobra.Command{
	Use:   "import [key]",
	Short: "Import a secret into keychain",
	Long:  "Save an existing secret key into your macOS Keychain for passwordless operation.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !internal.IsMacOS() {
			return internal.ErrKeychainUnsupported
		}

		var key string
		if len(args) > 0 {
			key = args[0]
		} else {
			var err error
			key, err = promptValue("Enter Secret Key to Import", "", true)
			if err != nil {
				return err
			}
		}

		if len(key) < internal.KeySize {
			return fmt.Errorf("secret must be at least %d characters", internal.KeySize)
		}

		if err := internal.SetKeychainItem(internal.KeychainAccount, key); err != nil {
			return fmt.Errorf("failed to store secret: %w", err)
		}

		fmt.Println("✅ Secret imported successfully to Keychain!")
		return nil
	},
}

var secretSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate a new secret and store it in keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !internal.IsMacOS() {
			return internal.ErrKeychainUnsupported
		}
		if _, err := internal.GetKeychainItem(internal.KeychainAccount); err == nil {
			return errors.New("a secret already exists. Remove it with `cloudview secret reset` first")
		}

		if _, err := internal.SetupKeychain(); err != nil {
			return fmt.Errorf("failed to set up keychain: %w", err)
		}
		fmt.Println("✅ New secret generated and stored in Keychain")
		fmt.Println("💡 Run `cloudview login` again so the session is saved encrypted")
		return nil
	},
}

var secretResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the keychain secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !internal.IsMacOS() {
			return internal.ErrKeychainUnsupported
		}
		if err := internal.DeleteKeychainItem(internal.KeychainAccount); err != nil {
			return fmt.Errorf("failed to remove secret: %w", err)
		}
		fmt.Println("✅ Secret removed. Sessions encrypted with it can no longer be read.")
		return nil
	},
}

func init() {
	secretCmd.AddCommand(secretShowCmd)
	secretCmd.AddCommand(secretImportCmd)
	secretCmd.AddCommand(secretSetupCmd)
	secretCmd.AddCommand(secretResetCmd)
	rootCmd.AddCommand(secretCmd)
}
