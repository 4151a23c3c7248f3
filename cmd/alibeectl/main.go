// Command alibeectl runs catalog queries and maintenance tasks against the
// configured provider and database without starting the HTTP server.
package main

func main() {
	Execute()
}
