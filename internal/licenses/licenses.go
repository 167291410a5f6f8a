// UrbXtract: Cross-Platform USB Request Block (URB) Sniffing and Reconstruction
// Copyright (C) 2026  Atheesh Thirumalairajan
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package licenses holds the GPL notices printed by the CLI.
package licenses

// Short is the interactive-startup notice required by GPL §5(d).
func Short() string {
	return "UrbXtract  Copyright (C) 2026  Atheesh Thirumalairajan\n" +
		"This program comes with ABSOLUTELY NO WARRANTY; run with --license-info for details.\n" +
		"This is free software, and you are welcome to redistribute it\n" +
		"under certain conditions; run with --license-info for details.\n"
}

// Full is the complete notice printed by --license-info.
func Full() string {
	return "UrbXtract\n" +
		"Copyright (C) 2026  Atheesh Thirumalairajan\n\n" +

		"This program is free software: you can redistribute it and/or modify\n" +
		"it under the terms of the GNU General Public License as published by\n" +
		"the Free Software Foundation, either version 3 of the License, or\n" +
		"(at your option) any later version.\n\n" +

		"This program is distributed in the hope that it will be useful,\n" +
		"but WITHOUT ANY WARRANTY; without even the implied warranty of\n" +
		"MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the\n" +
		"GNU General Public License for more details.\n\n" +

		"You should have received a copy of the GNU General Public License\n" +
		"along with this program.  If not, see <https://www.gnu.org/licenses/>.\n"
}
