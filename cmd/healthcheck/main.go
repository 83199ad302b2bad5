// main.go
//
// Rules engine and configuration service for the jam-build 3D product configurator
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-configurator.
// jam-build-configurator is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-configurator is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-configurator.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/localnerve/jam-build-configurator/internal/config"
	"github.com/localnerve/jam-build-configurator/internal/database"
	"github.com/localnerve/jam-build-configurator/internal/services"
)

func main() {
	var serverURL string
	flag.StringVar(&serverURL, "url", "", "check a running server at this base URL instead of the database")
	flag.Parse()

	var result services.HealthCheckResult
	if serverURL != "" {
		result = checkServer(serverURL)
	} else {
		result = checkDirect()
	}

	// Output result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal health check result: %v", err)
	}

	fmt.Println(string(output))

	// Exit with appropriate code
	if result.Status != "healthy" {
		os.Exit(1)
	}
	os.Exit(0)
}

func checkDirect() services.HealthCheckResult {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	return services.HealthCheck(cfg, db, nil)
}

func checkServer(baseURL string) services.HealthCheckResult {
	result := services.HealthCheckResult{Status: "unhealthy"}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		result.Status = "unhealthy"
		result.ErrorMessage = fmt.Sprintf("Failed to decode health response (HTTP %d): %v", resp.StatusCode, err)
	}
	return result
}
