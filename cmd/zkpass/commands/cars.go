package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"zkpass/internal/domain"
)

func carsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cars",
		Short: "Read the car registry",
	}

	var owner string
	list := &cobra.Command{
		Use:   "list",
		Short: "List cars owned by --owner, or every listed car",
		RunE: func(cmd *cobra.Command, args []string) error {
			cars, err := wire.Vehicles.ListCars(commandContext(cmd), domain.Address(owner))
			if err != nil {
				return err
			}
			if len(cars) == 0 {
				fmt.Println("No cars.")
				return nil
			}
			for _, c := range cars {
				price := "-"
				if c.Price != nil {
					price = fmt.Sprint(*c.Price)
				}
				fmt.Printf("%s  %s %s (%d)  vin=%s  km=%d  price=%s\n",
					c.ID, c.Brand, c.Model, c.Year, c.VIN, c.Mileage, price)
			}
			return nil
		},
	}
	list.Flags().StringVar(&owner, "owner", "", "owner address")

	show := &cobra.Command{
		Use:   "show <car-id>",
		Short: "Print a car and its service records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			car, records, err := wire.Vehicles.GetCar(commandContext(cmd), domain.ObjectID(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("%s %s (%d)\nowner:   %s\nvin:     %s\nmileage: %d\n",
				car.Brand, car.Model, car.Year, car.Owner, car.VIN, car.Mileage)
			if car.ImageURL != "" {
				fmt.Printf("image:   %s\n", car.ImageURL)
			}
			for _, r := range records {
				at := time.UnixMilli(int64(r.Timestamp)).UTC().Format(time.RFC3339)
				fmt.Printf("  %s  %s  %s  km=%d\n", at, r.Provider, r.Description, r.Mileage)
			}
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func partnersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "partners",
		Short: "List third parties granted a capability",
		RunE: func(cmd *cobra.Command, args []string) error {
			partners, err := wire.Vehicles.ListPartners(commandContext(cmd))
			if err != nil {
				return err
			}
			for _, p := range partners {
				status := "active"
				if p.Revoked {
					status = "revoked"
				}
				fmt.Printf("%s  %-9s  %-8s  %s  %s\n", p.CapID, p.Role, status, p.Name, p.Recipient)
			}
			return nil
		},
	}
}
