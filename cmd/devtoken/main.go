// devtoken emite un JWT firmado con JWT_SECRET para probar la API en local.
//
// Uso: go run ./cmd/devtoken <user_id> <admin|supervisor|staff> [outlet_id]
// Escribe el token en stdout.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/opname-api/pkg/config"
	pkgjwt "github.com/jhoicas/opname-api/pkg/jwt"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "uso: devtoken <user_id> <admin|supervisor|staff> [outlet_id]")
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	id := pkgjwt.Identity{UserID: os.Args[1], Role: os.Args[2]}
	if len(os.Args) > 3 {
		id.OutletID = os.Args[3]
	}
	switch id.Role {
	case "admin", "supervisor", "staff":
	default:
		fmt.Fprintf(os.Stderr, "Rol desconocido: %s\n", id.Role)
		os.Exit(2)
	}

	ttl := time.Duration(cfg.JWT.Expiration) * time.Minute
	tok, err := pkgjwt.Generate(cfg.JWT.Secret, id, cfg.JWT.Issuer, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
