package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Small dataset samples shaped like the published source files. They are
// shared by parser, view, service and handler tests.
const (
	PresidentCSV = `year,state,state_po,state_fips,office,candidate,party_detailed,party_simplified,candidatevotes,totalvotes
2016,OHIO,OH,39,US PRESIDENT,"CLINTON, HILLARY",DEMOCRAT,DEMOCRAT,2394164,5496487
2016,OHIO,OH,39,US PRESIDENT,"TRUMP, DONALD J.",REPUBLICAN,REPUBLICAN,2841005,5496487
2016,OHIO,OH,39,US PRESIDENT,"JOHNSON, GARY",LIBERTARIAN,LIBERTARIAN,174498,5496487
2020,OHIO,OH,39,US PRESIDENT,"BIDEN, JOSEPH R. JR",DEMOCRAT,DEMOCRAT,2679165,5922202
2020,OHIO,OH,39,US PRESIDENT,"TRUMP, DONALD J.",REPUBLICAN,REPUBLICAN,3154834,5922202
2020,OHIO,OH,39,US PRESIDENT,"JORGENSEN, JO",LIBERTARIAN,LIBERTARIAN,67569,5922202
2020,VERMONT,VT,50,US PRESIDENT,"BIDEN, JOSEPH R. JR",DEMOCRAT,DEMOCRAT,242820,367428
2020,VERMONT,VT,50,US PRESIDENT,"TRUMP, DONALD J.",REPUBLICAN,REPUBLICAN,112704,367428
2020,VERMONT,VT,50,US PRESIDENT,"WRITEIN",,,1942,367428
`

	HouseCSV = `year,state,state_po,state_fips,office,district,candidate,party,candidatevotes,totalvotes,party_simplified
2022,VERMONT,VT,50,US HOUSE,0,BECCA BALINT,DEMOCRAT,176494,291955,DEMOCRAT
2022,VERMONT,VT,50,US HOUSE,0,LIAM MADDEN,REPUBLICAN,78397,291955,REPUBLICAN
2022,OHIO,OH,39,US HOUSE,1,GREG LANDSMAN,DEMOCRAT,134478,256720,DEMOCRAT
2022,OHIO,OH,39,US HOUSE,1,STEVE CHABOT,REPUBLICAN,122242,256720,REPUBLICAN
2022,OHIO,OH,39,US HOUSE,10,DAVID ESRATI,DEMOCRAT,115444,283286,DEMOCRAT
2022,OHIO,OH,39,US HOUSE,10,MIKE TURNER,REPUBLICAN,167842,283286,REPUBLICAN
2022,OHIO,OH,39,US HOUSE,2,SAMANTHA MEADOWS,DEMOCRAT,68075,260917,DEMOCRAT
2022,OHIO,OH,39,US HOUSE,2,BRAD WENSTRUP,REPUBLICAN,192117,260917,REPUBLICAN
`

	EVCSV = `VIN (1-10),County,City,State,Postal Code,Model Year,Make,Model,Electric Vehicle Type,Clean Alternative Fuel Vehicle (CAFV) Eligibility,Electric Range,Base MSRP,Legislative District,DOL Vehicle ID,Vehicle Location,Electric Utility,2020 Census Tract
5YJ3E1EB0K,King,Seattle,WA,98122,2019,TESLA,MODEL 3,Battery Electric Vehicle (BEV),Clean Alternative Fuel Vehicle Eligible,220,0,37,477309682,POINT (-122.30839 47.610365),CITY OF SEATTLE - (WA)|CITY OF TACOMA - (WA),53033007800
5YJYGDEE1L,King,Bellevue,WA,98004,2020,TESLA,MODEL Y,Battery Electric Vehicle (BEV),Clean Alternative Fuel Vehicle Eligible,291,0,48,124535071,POINT (-122.20264 47.61476),PUGET SOUND ENERGY INC||CITY OF TACOMA - (WA),53033023902
1N4AZ0CP5D,Snohomish,Everett,WA,98201,2013,NISSAN,LEAF,Battery Electric Vehicle (BEV),Clean Alternative Fuel Vehicle Eligible,75,0,38,113089016,POINT (-122.20596 47.97659),PUGET SOUND ENERGY INC,53061041100
1FMCU0EZXN,Pierce,Tacoma,WA,98403,2022,FORD,ESCAPE,Plug-in Hybrid Electric Vehicle (PHEV),Not eligible due to low battery range,37,0,27,201340981,POINT (-122.45697 47.25526),BONNEVILLE POWER ADMINISTRATION||CITY OF TACOMA - (WA),53053061400
7SAYGDEE6P,King,Seattle,WA,98109,2023,TESLA,MODEL Y,Battery Electric Vehicle (BEV),Eligibility unknown as battery range has not been researched,0,0,36,231048394,POINT (-122.34301 47.62724),CITY OF SEATTLE - (WA)|CITY OF TACOMA - (WA),53033006800
`

	BorderCSV = `Port Name,State,Port Code,Border,Date,Measure,Value,Latitude,Longitude,Point
Detroit,Michigan,3801,US-Canada Border,Jan 2023,Personal Vehicles,250000,42.332,-83.048,POINT (-83.048 42.332)
Detroit,Michigan,3801,US-Canada Border,Feb 2023,Personal Vehicles,240000,42.332,-83.048,POINT (-83.048 42.332)
Detroit,Michigan,3801,US-Canada Border,Jan 2023,Trucks,120000,42.332,-83.048,POINT (-83.048 42.332)
San Ysidro,California,2504,US-Mexico Border,Jan 2023,Pedestrians,600000,32.542,-117.029,POINT (-117.029 32.542)
San Ysidro,California,2504,US-Mexico Border,Mar 2022,Pedestrians,550000,32.542,-117.029,POINT (-117.029 32.542)
El Paso,Texas,2402,US-Mexico Border,Feb 2023,Trucks,70000,31.764,-106.451,POINT (-106.451 31.764)
`
)

// WriteFixture writes content to name inside a fresh temp dir and returns the
// full path.
func WriteFixture(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// WriteDataDir writes the samples under their published file names and
// returns the directory.
func WriteDataDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"1976-2020-president.csv":             PresidentCSV,
		"1976-2020-senate.csv":                PresidentCSV,
		"1976-2022-house.csv":                 HouseCSV,
		"Electric_Vehicle_Population_Data.csv": EVCSV,
		"Border_Crossing_Entry_Data.csv":       BorderCSV,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
	}
	return dir
}
