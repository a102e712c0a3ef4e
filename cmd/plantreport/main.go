// Command plantreport prints the current board snapshot as a shop-floor
// report: one table with every order and one summary per pipeline stage,
// including the plant load derived from everything in production.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/viuworks/taller/internal/capacity"
	"github.com/viuworks/taller/internal/db"
	"github.com/viuworks/taller/internal/pipeline"
	"github.com/viuworks/taller/internal/snapshot"
	"github.com/viuworks/taller/internal/store"
)

func main() {
	dbPath := flag.String("db", "./taller.db", "ruta de la base de datos sqlite")
	maxCapacity := flag.Int64("capacidad", capacity.DefaultMaxCapacity, "capacidad máxima de planta en CLP")
	showOrders := flag.Bool("ordenes", true, "incluir el detalle de órdenes")
	flag.Parse()

	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	state, err := snapshot.Load(database, snapshot.StoreName)
	if errors.Is(err, snapshot.ErrNotFound) {
		fmt.Println("Sin datos: el tablero aún no tiene órdenes guardadas.")
		return
	}
	if err != nil {
		log.Fatalf("load snapshot: %v", err)
	}

	if *showOrders {
		printOrders(state.Orders)
		fmt.Println()
	}
	printSummary(state.Orders, *maxCapacity)
}

func printOrders(orders []store.Order) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Orden", "Campaña", "Cliente", "Estado", "Archivo", "Entrega", "Monto CLP"})
	for _, o := range orders {
		table.Append([]string{
			o.ID,
			o.CampaignName,
			o.CustomerID,
			string(o.Status),
			string(o.FileStatus),
			o.DeliveryDate,
			strconv.FormatInt(o.TotalAmount, 10),
		})
	}
	if err := table.Render(); err != nil {
		log.Fatalf("render orders table: %v", err)
	}
}

func printSummary(orders []store.Order, maxCapacity int64) {
	counts := make(map[pipeline.Stage]int)
	totals := make(map[pipeline.Stage]int64)
	for _, o := range orders {
		counts[o.Status]++
		totals[o.Status] += o.TotalAmount
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Etapa", "Órdenes", "Monto CLP"})
	for _, stage := range pipeline.Stages {
		table.Append([]string{
			string(stage),
			strconv.Itoa(counts[stage]),
			strconv.FormatInt(totals[stage], 10),
		})
	}
	if err := table.Render(); err != nil {
		log.Fatalf("render summary table: %v", err)
	}

	load := capacity.LoadPercent(orders, maxCapacity)
	fmt.Printf("Carga de planta: %d%%", load)
	switch {
	case capacity.Saturated(load):
		fmt.Print(" (saturada: ingreso a producción requiere supervisor)")
	case capacity.ExpressNeedsOverride(load):
		fmt.Print(" (sobre 80%: entregas Express requieren supervisor)")
	}
	fmt.Println()
}
