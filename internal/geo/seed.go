package geo

// seedRows is the built-in reference table used until (and unless) a remote
// refresh succeeds. Codes are ISO 3166-1 alpha-2.
var seedRows = []Country{
	{Code: "AE", Name: "United Arab Emirates", Continent: "Asia", Currency: "AED"},
	{Code: "AR", Name: "Argentina", Continent: "South America", Currency: "ARS"},
	{Code: "AT", Name: "Austria", Continent: "Europe", Currency: "EUR"},
	{Code: "AU", Name: "Australia", Continent: "Oceania", Currency: "AUD"},
	{Code: "BE", Name: "Belgium", Continent: "Europe", Currency: "EUR"},
	{Code: "BG", Name: "Bulgaria", Continent: "Europe", Currency: "BGN"},
	{Code: "BR", Name: "Brazil", Continent: "South America", Currency: "BRL"},
	{Code: "CA", Name: "Canada", Continent: "North America", Currency: "CAD"},
	{Code: "CH", Name: "Switzerland", Continent: "Europe", Currency: "CHF"},
	{Code: "CL", Name: "Chile", Continent: "South America", Currency: "CLP"},
	{Code: "CN", Name: "China", Continent: "Asia", Currency: "CNY"},
	{Code: "CO", Name: "Colombia", Continent: "South America", Currency: "COP"},
	{Code: "CZ", Name: "Czechia", Continent: "Europe", Currency: "CZK"},
	{Code: "DE", Name: "Germany", Continent: "Europe", Currency: "EUR"},
	{Code: "DK", Name: "Denmark", Continent: "Europe", Currency: "DKK"},
	{Code: "EG", Name: "Egypt", Continent: "Africa", Currency: "EGP"},
	{Code: "ES", Name: "Spain", Continent: "Europe", Currency: "EUR"},
	{Code: "FI", Name: "Finland", Continent: "Europe", Currency: "EUR"},
	{Code: "FR", Name: "France", Continent: "Europe", Currency: "EUR"},
	{Code: "GB", Name: "United Kingdom", Continent: "Europe", Currency: "GBP"},
	{Code: "GR", Name: "Greece", Continent: "Europe", Currency: "EUR"},
	{Code: "HK", Name: "Hong Kong", Continent: "Asia", Currency: "HKD"},
	{Code: "HR", Name: "Croatia", Continent: "Europe", Currency: "EUR"},
	{Code: "HU", Name: "Hungary", Continent: "Europe", Currency: "HUF"},
	{Code: "ID", Name: "Indonesia", Continent: "Asia", Currency: "IDR"},
	{Code: "IE", Name: "Ireland", Continent: "Europe", Currency: "EUR"},
	{Code: "IL", Name: "Israel", Continent: "Asia", Currency: "ILS"},
	{Code: "IN", Name: "India", Continent: "Asia", Currency: "INR"},
	{Code: "IT", Name: "Italy", Continent: "Europe", Currency: "EUR"},
	{Code: "JP", Name: "Japan", Continent: "Asia", Currency: "JPY"},
	{Code: "KE", Name: "Kenya", Continent: "Africa", Currency: "KES"},
	{Code: "KR", Name: "South Korea", Continent: "Asia", Currency: "KRW"},
	{Code: "MA", Name: "Morocco", Continent: "Africa", Currency: "MAD"},
	{Code: "MX", Name: "Mexico", Continent: "North America", Currency: "MXN"},
	{Code: "MY", Name: "Malaysia", Continent: "Asia", Currency: "MYR"},
	{Code: "NG", Name: "Nigeria", Continent: "Africa", Currency: "NGN"},
	{Code: "NL", Name: "Netherlands", Continent: "Europe", Currency: "EUR"},
	{Code: "NO", Name: "Norway", Continent: "Europe", Currency: "NOK"},
	{Code: "NZ", Name: "New Zealand", Continent: "Oceania", Currency: "NZD"},
	{Code: "PE", Name: "Peru", Continent: "South America", Currency: "PEN"},
	{Code: "PH", Name: "Philippines", Continent: "Asia", Currency: "PHP"},
	{Code: "PL", Name: "Poland", Continent: "Europe", Currency: "PLN"},
	{Code: "PT", Name: "Portugal", Continent: "Europe", Currency: "EUR"},
	{Code: "RO", Name: "Romania", Continent: "Europe", Currency: "RON"},
	{Code: "RS", Name: "Serbia", Continent: "Europe", Currency: "RSD"},
	{Code: "SA", Name: "Saudi Arabia", Continent: "Asia", Currency: "SAR"},
	{Code: "SE", Name: "Sweden", Continent: "Europe", Currency: "SEK"},
	{Code: "SG", Name: "Singapore", Continent: "Asia", Currency: "SGD"},
	{Code: "TH", Name: "Thailand", Continent: "Asia", Currency: "THB"},
	{Code: "TR", Name: "Turkey", Continent: "Asia", Currency: "TRY"},
	{Code: "TW", Name: "Taiwan", Continent: "Asia", Currency: "TWD"},
	{Code: "UA", Name: "Ukraine", Continent: "Europe", Currency: "UAH"},
	{Code: "US", Name: "United States", Continent: "North America", Currency: "USD"},
	{Code: "UY", Name: "Uruguay", Continent: "South America", Currency: "UYU"},
	{Code: "VN", Name: "Vietnam", Continent: "Asia", Currency: "VND"},
	{Code: "ZA", Name: "South Africa", Continent: "Africa", Currency: "ZAR"},
}
