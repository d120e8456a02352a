package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cuaderno/pkg/sigpac"
)

var sigpacCmd = &cobra.Command{
	Use:   "sigpac",
	Short: "SIGPAC reference utilities",
}

var sigpacValidateCmd = &cobra.Command{
	Use:   "validate REF",
	Short: "Validate a SIGPAC reference offline",
	Long: `Checks the format PP:MMM:AAAA:ZZZZZ:PPPP:RR and the province code,
then prints each part.`,
	Args: cobra.ExactArgs(1),
	RunE: runSigpacValidate,
}

func init() {
	sigpacCmd.AddCommand(sigpacValidateCmd)
	rootCmd.AddCommand(sigpacCmd)
}

func runSigpacValidate(cmd *cobra.Command, args []string) error {
	v := sigpac.Validate(args[0])
	if !v.Valid {
		return errors.New(v.Error)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "referencia: %s\n", v.Referencia)
	fmt.Fprintf(out, "provincia:  %s %s (%s)\n", v.Provincia.Codigo, v.Provincia.Nombre, v.Provincia.Comunidad)
	fmt.Fprintf(out, "municipio:  %s\n", v.Partes.Municipio)
	fmt.Fprintf(out, "agregado:   %s\n", v.Partes.Agregado)
	fmt.Fprintf(out, "zona:       %s\n", v.Partes.Zona)
	fmt.Fprintf(out, "parcela:    %s\n", v.Partes.Parcela)
	fmt.Fprintf(out, "recinto:    %s\n", v.Partes.Recinto)
	return nil
}
